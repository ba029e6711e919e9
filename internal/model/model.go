package model

import (
	"time"

	"thesisreg/internal/auth"
)

type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         auth.Role  `json:"role"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	Student      *Student   `json:"student,omitempty"`
	Professor    *Professor `json:"professor,omitempty"`
}

type Student struct {
	UserID        int64   `json:"userId"`
	StudentNumber *string `json:"studentNumber"`
	Department    *string `json:"department"`
	User          *User   `json:"user,omitempty"`
}

type Professor struct {
	UserID       int64       `json:"userId"`
	DepartmentID *int64      `json:"departmentId"`
	Department   *Department `json:"department,omitempty"`
	User         *User       `json:"user,omitempty"`
}

type Department struct {
	ID               int64      `json:"departmentId"`
	Name             *string    `json:"departmentName"`
	HeadOfDeptID     *int64     `json:"headOfDepartmentId"`
	HeadOfDepartment *Professor `json:"headOfDepartment,omitempty"`
}

type RegistrationSession struct {
	ID          int64      `json:"id"`
	ProfessorID int64      `json:"professorId"`
	Professor   *Professor `json:"professor,omitempty"`
	MaxStudents int        `json:"maxStudents"`
	StartDate   time.Time  `json:"startDate"`
	EndDate     time.Time  `json:"endDate"`
}

type RequestStatus string

const (
	StatusPending  RequestStatus = "Pending"
	StatusApproved RequestStatus = "Approved"
	StatusRejected RequestStatus = "Rejected"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

type RegistrationRequest struct {
	ID                    int64                `json:"id"`
	StudentID             int64                `json:"studentId"`
	Student               *Student             `json:"student,omitempty"`
	RegistrationSessionID int64                `json:"registrationSessionId"`
	RegistrationSession   *RegistrationSession `json:"registrationSession,omitempty"`
	Status                RequestStatus        `json:"status"`
	ProposedTheme         string               `json:"proposedTheme"`
	StatusJustification   string               `json:"statusJustification"`
}

type FileUpload struct {
	ID           int64     `json:"id"`
	RequestID    int64     `json:"requestId"`
	UploadedBy   string    `json:"uploadedBy"`
	FileType     string    `json:"fileType"`
	FileName     string    `json:"fileName"`
	FilePath     string    `json:"-"`
	UploadedDate time.Time `json:"uploadedDate"`
}
