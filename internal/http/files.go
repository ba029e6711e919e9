package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"thesisreg/internal/model"
)

const maxUploadBytes = 50 << 20

const (
	fileTypeAcademicDefault = "academic-default"
	fileTypeAcademicSigned  = "academic-signed"
	fileTypeProgress        = "progress"
)

var allowedFileTypes = map[string]bool{
	fileTypeAcademicDefault: true,
	fileTypeAcademicSigned:  true,
	fileTypeProgress:        true,
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.store.ListFiles(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("list files")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, files)
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	fileID, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid file id")
		return
	}

	file, err := s.store.GetFile(r.Context(), fileID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "File not found")
			return
		}
		s.log.Error().Err(err).Msg("get file")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, file)
}

func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+4096)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusBadRequest, "File size exceeds the 50MB limit")
		} else {
			writeError(w, http.StatusBadRequest, "Invalid multipart form")
		}
		return
	}

	requestID, err := strconv.ParseInt(r.FormValue("requestId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}
	fileType := r.FormValue("fileType")
	if !allowedFileTypes[fileType] {
		writeError(w, http.StatusBadRequest, "Invalid file type. Allowed types are: academic-default, academic-signed, progress")
		return
	}
	uploadedBy := r.FormValue("uploadedBy")
	if uploadedBy == "" {
		if claims := claimsFromContext(r.Context()); claims != nil {
			uploadedBy = claims.Email
		}
	}

	upload, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer upload.Close()
	if header.Size > maxUploadBytes {
		writeError(w, http.StatusBadRequest, "File size exceeds the 50MB limit")
		return
	}

	request, err := s.store.GetRequest(r.Context(), requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusBadRequest, "Invalid request ID")
			return
		}
		s.log.Error().Err(err).Msg("upload file: load request")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	// One file per type per request: a new upload replaces the old one on
	// disk and in the table.
	if err := s.removeExistingFile(r, requestID, fileType); err != nil {
		s.log.Error().Err(err).Msg("upload file: replace previous")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	storedName := storedFileName(request, fileType, filepath.Ext(header.Filename))
	destPath := filepath.Join(s.cfg.UploadDir, storedName)
	if err := saveUpload(destPath, upload); err != nil {
		s.log.Error().Err(err).Msg("upload file: write")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	file := model.FileUpload{
		RequestID:    requestID,
		UploadedBy:   uploadedBy,
		FileType:     fileType,
		FileName:     storedName,
		FilePath:     destPath,
		UploadedDate: time.Now(),
	}
	if err := s.store.CreateFile(r.Context(), &file); err != nil {
		_ = os.Remove(destPath)
		s.log.Error().Err(err).Msg("upload file: record")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "File uploaded successfully",
		"fileId":  file.ID,
	})
}

func (s *Server) handleDownloadFile(w http.ResponseWriter, r *http.Request) {
	fileID, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid file id")
		return
	}

	file, err := s.store.GetFile(r.Context(), fileID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "File not found")
			return
		}
		s.log.Error().Err(err).Msg("download file")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	// Refuse paths that escape the upload directory, whatever the table
	// says.
	absPath, err := filepath.Abs(file.FilePath)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Access denied")
		return
	}
	absRoot, err := filepath.Abs(s.cfg.UploadDir)
	if err != nil || !strings.HasPrefix(absPath, absRoot+string(os.PathSeparator)) {
		writeError(w, http.StatusBadRequest, "Access denied")
		return
	}

	f, err := os.Open(absPath)
	if err != nil {
		writeError(w, http.StatusNotFound, "File not found on server.")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", contentTypeForFile(file.FileName))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	_, _ = io.Copy(w, f)
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	fileID, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid file id")
		return
	}

	file, err := s.store.GetFile(r.Context(), fileID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "File not found")
			return
		}
		s.log.Error().Err(err).Msg("delete file: load")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := os.Remove(file.FilePath); err != nil && !os.IsNotExist(err) {
		s.log.Warn().Err(err).Str("path", file.FilePath).Msg("stored file removal failed")
	}
	if _, err := s.store.DeleteFile(r.Context(), fileID); err != nil {
		s.log.Error().Err(err).Msg("delete file")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "File deleted successfully",
		"fileId":  fileID,
	})
}

type fileMetadata struct {
	ID           int64     `json:"id"`
	FileName     string    `json:"fileName"`
	UploadedBy   string    `json:"uploadedBy"`
	UploadedDate time.Time `json:"uploadedDate"`
}

type requestFilesEntry struct {
	RequestID int64                    `json:"requestId"`
	Student   *model.Student           `json:"student,omitempty"`
	Files     map[string]*fileMetadata `json:"files"`
}

func (s *Server) handleListFilesByProfessor(w http.ResponseWriter, r *http.Request) {
	professorID, err := idParam(r, "professorId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid professor id")
		return
	}

	requests, err := s.store.ListRequestsByProfessor(r.Context(), professorID, "")
	if err != nil {
		s.log.Error().Err(err).Msg("list files by professor")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	entries := make([]requestFilesEntry, 0, len(requests))
	for _, request := range requests {
		files, err := s.store.ListFilesByRequest(r.Context(), request.ID)
		if err != nil {
			s.log.Error().Err(err).Msg("list files by professor: files")
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		entries = append(entries, requestFilesEntry{
			RequestID: request.ID,
			Student:   request.Student,
			Files:     latestFilesByType(files),
		})
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleListFilesByRequest(w http.ResponseWriter, r *http.Request) {
	requestID, err := idParam(r, "requestId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request id")
		return
	}

	if _, err := s.store.GetRequest(r.Context(), requestID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "Registration request not found")
			return
		}
		s.log.Error().Err(err).Msg("list files by request: load request")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	files, err := s.store.ListFilesByRequest(r.Context(), requestID)
	if err != nil {
		s.log.Error().Err(err).Msg("list files by request")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, latestFilesByType(files))
}

// latestFilesByType keeps the newest file of each type; every allowed type
// has a key so clients can render missing slots.
func latestFilesByType(files []model.FileUpload) map[string]*fileMetadata {
	byType := map[string]*fileMetadata{
		fileTypeAcademicDefault: nil,
		fileTypeAcademicSigned:  nil,
		fileTypeProgress:        nil,
	}
	// ListFilesByRequest returns newest first.
	for _, file := range files {
		if existing, known := byType[file.FileType]; known && existing == nil {
			byType[file.FileType] = &fileMetadata{
				ID:           file.ID,
				FileName:     file.FileName,
				UploadedBy:   file.UploadedBy,
				UploadedDate: file.UploadedDate,
			}
		}
	}
	return byType
}

// attachAcademicDefault copies the thesis template into the request's file
// set when a request is approved for the first time.
func (s *Server) attachAcademicDefault(r *http.Request, request model.RegistrationRequest) error {
	templatePath := filepath.Join(s.cfg.TemplateDir, "academic-request.pdf")
	template, err := os.Open(templatePath)
	if err != nil {
		return fmt.Errorf("open template: %w", err)
	}
	defer template.Close()

	if err := s.removeExistingFile(r, request.ID, fileTypeAcademicDefault); err != nil {
		return err
	}

	storedName := storedFileName(request, fileTypeAcademicDefault, ".pdf")
	destPath := filepath.Join(s.cfg.UploadDir, storedName)
	if err := saveUpload(destPath, template); err != nil {
		return err
	}

	file := model.FileUpload{
		RequestID:    request.ID,
		UploadedBy:   "system",
		FileType:     fileTypeAcademicDefault,
		FileName:     storedName,
		FilePath:     destPath,
		UploadedDate: time.Now(),
	}
	if err := s.store.CreateFile(r.Context(), &file); err != nil {
		_ = os.Remove(destPath)
		return err
	}
	return nil
}

func (s *Server) removeExistingFile(r *http.Request, requestID int64, fileType string) error {
	existing, err := s.store.GetFileByRequestAndType(r.Context(), requestID, fileType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}
	if err := os.Remove(existing.FilePath); err != nil && !os.IsNotExist(err) {
		s.log.Warn().Err(err).Str("path", existing.FilePath).Msg("stored file removal failed")
	}
	_, err = s.store.DeleteFile(r.Context(), existing.ID)
	return err
}

// storedFileName builds "<uuid>_<student>_<professor>_<type><ext>" so names
// never collide and stay traceable to their request.
func storedFileName(request model.RegistrationRequest, fileType, ext string) string {
	student := "student"
	if request.Student != nil && request.Student.User != nil {
		student = sanitizeNamePart(request.Student.User.Username)
	}
	professor := "professor"
	if request.RegistrationSession != nil && request.RegistrationSession.Professor != nil &&
		request.RegistrationSession.Professor.User != nil {
		professor = sanitizeNamePart(request.RegistrationSession.Professor.User.Username)
	}
	return fmt.Sprintf("%s_%s_%s_%s%s", uuid.NewString(), student, professor, fileType, ext)
}

func sanitizeNamePart(name string) string {
	name = strings.TrimSpace(name)
	replacer := strings.NewReplacer(" ", "-", "/", "-", "\\", "-", "_", "-")
	return replacer.Replace(name)
}

func saveUpload(destPath string, src io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}
	dest, err := os.Create(destPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dest, src); err != nil {
		dest.Close()
		_ = os.Remove(destPath)
		return err
	}
	return dest.Close()
}

func contentTypeForFile(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return "application/pdf"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "application/octet-stream"
}
