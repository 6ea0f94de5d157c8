package handlers

import (
	"net/http"

	"github.com/nexora-club/membership-backend/middleware"
	"github.com/nexora-club/membership-backend/services"
)

type TaskHandler struct {
	taskService services.TaskService
}

func NewTaskHandler(taskService services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	teamID, err := urlParamInt(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tasks, err := h.taskService.ListTasks(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, tasks, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.ClaimsFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "missing token")
		return
	}

	teamID, err := urlParamInt(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Title string `json:"title"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	task, err := h.taskService.CreateTask(r.Context(), claims.UserID, teamID, input.Title)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, task, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TaskHandler) UpdateCompletion(w http.ResponseWriter, r *http.Request) {
	teamID, err := urlParamInt(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	taskID, err := urlParamInt(r, "taskID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		IsCompleted bool `json:"is_completed"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	task, err := h.taskService.UpdateTaskCompletion(r.Context(), teamID, taskID, input.IsCompleted)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, task, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	teamID, err := urlParamInt(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	taskID, err := urlParamInt(r, "taskID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.taskService.DeleteTask(r.Context(), teamID, taskID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"success": true, "message": "Task deleted"}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
