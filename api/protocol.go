package api

import "taskboard-api/domain"

const requestMaxSize = 64 * 1024 // 64 KiB

type createBoardRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

type boardPatchRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

type joinBoardRequest struct {
	AccessCode string `json:"accessCode" validate:"required,len=6"`
}

type shareBoardResponse struct {
	AccessCode string `json:"accessCode"`
}

type createTaskRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Status      string `json:"status" validate:"omitempty,oneof='To Do' 'In Progress' 'Done'"`
	AssignedTo  string `json:"assignedTo" validate:"max=200"`
}

type taskPatchRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Status      *string `json:"status" validate:"omitempty,oneof='To Do' 'In Progress' 'Done'"`
	AssignedTo  *string `json:"assignedTo" validate:"omitempty,max=200"`
}

func (r taskPatchRequest) toPatch() domain.TaskPatch {
	p := domain.TaskPatch{
		Title:       r.Title,
		Description: r.Description,
		AssignedTo:  r.AssignedTo,
	}
	if r.Status != nil {
		s := domain.Status(*r.Status)
		p.Status = &s
	}
	return p
}

type themeRequest struct {
	Theme string `json:"theme" validate:"required,oneof=light dark"`
}

type handoffRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type profileRequest struct {
	Name  string `json:"name" validate:"max=200"`
	Email string `json:"email" validate:"omitempty,email"`
}

type meResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Theme string `json:"theme"`
}

type errorResponse struct {
	Error string `json:"error"`
}
