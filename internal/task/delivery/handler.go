package delivery

import (
	"github.com/gin-gonic/gin"

	authdelivery "collab-backend/internal/auth/delivery"
	msgdto "collab-backend/internal/message/dto"
	msgusecase "collab-backend/internal/message/usecase"
	"collab-backend/internal/task/dto"
	"collab-backend/internal/task/usecase"
	"collab-backend/pkg/response"
)

// TaskHandler handles task, reminder and daily task HTTP requests
type TaskHandler struct {
	taskUsecase usecase.TaskUsecase
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(taskUsecase usecase.TaskUsecase) *TaskHandler {
	return &TaskHandler{
		taskUsecase: taskUsecase,
	}
}

func origin(c *gin.Context) msgusecase.Origin {
	return msgusecase.Origin{UserID: authdelivery.UserID(c), SocketID: authdelivery.SocketID(c)}
}

// GetTasks returns all tasks for the authenticated user
// GET /api/tasks?status=pending&limit=50&offset=0
func (h *TaskHandler) GetTasks(c *gin.Context) {
	q := dto.ListTasksQuery{Limit: 50}
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	tasks, total, err := h.taskUsecase.ListTasks(c.Request.Context(), authdelivery.UserID(c), q.Status, q.Limit, q.Offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	out := make([]*msgdto.MessageResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, &msgdto.MessageResponse{Message: t})
	}
	response.OK(c, "Tasks retrieved", msgdto.MessageListResponse{
		Messages: out,
		Total:    total,
		Limit:    q.Limit,
		Offset:   q.Offset,
	})
}

// GetTaskByID returns a specific task
// GET /api/tasks/:id
func (h *TaskHandler) GetTaskByID(c *gin.Context) {
	id, err := response.IDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	res, err := h.taskUsecase.GetTask(c.Request.Context(), authdelivery.UserID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Task retrieved", res.Response())
}

// CreateTask creates a task and assigns it to the recipients
// POST /api/tasks
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req dto.CreateTaskRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BindError(c, err)
		return
	}
	res, err := h.taskUsecase.CreateTask(c.Request.Context(), origin(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Task created", res.Response())
}

// UpdateTask updates an existing task
// PUT /api/tasks/:id
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	id, err := response.IDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	res, err := h.taskUsecase.UpdateTask(c.Request.Context(), origin(c), id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Task updated", res.Response())
}

// UpdateTaskStatus is a convenience endpoint to just update status
// PATCH /api/tasks/:id/status
func (h *TaskHandler) UpdateTaskStatus(c *gin.Context) {
	id, err := response.IDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateTaskStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	res, err := h.taskUsecase.UpdateTaskStatus(c.Request.Context(), origin(c), id, req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Task status updated", res.Response())
}

// DeleteTask deletes a task
// DELETE /api/tasks/:id
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id, err := response.IDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.taskUsecase.DeleteTask(c.Request.Context(), origin(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Task deleted successfully", nil)
}

// CreateReminder
// POST /api/reminders
func (h *TaskHandler) CreateReminder(c *gin.Context) {
	var req dto.CreateReminderRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BindError(c, err)
		return
	}
	res, err := h.taskUsecase.CreateReminder(c.Request.Context(), origin(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Reminder created", res.Response())
}

// UpdateReminder
// PUT /api/reminders/:id
func (h *TaskHandler) UpdateReminder(c *gin.Context) {
	id, err := response.IDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	res, err := h.taskUsecase.UpdateReminder(c.Request.Context(), origin(c), id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Reminder updated", res.Response())
}

// CreateDailyTask
// POST /api/daily-tasks
func (h *TaskHandler) CreateDailyTask(c *gin.Context) {
	var req dto.CreateDailyTaskRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BindError(c, err)
		return
	}
	res, err := h.taskUsecase.CreateDailyTask(c.Request.Context(), origin(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Daily task created", res.Response())
}

// UpdateDailyTask
// PUT /api/daily-tasks/:id
func (h *TaskHandler) UpdateDailyTask(c *gin.Context) {
	id, err := response.IDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateDailyTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	res, err := h.taskUsecase.UpdateDailyTask(c.Request.Context(), origin(c), id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Daily task updated", res.Response())
}

// RegisterRoutes mounts the task endpoints on an authenticated group.
func (h *TaskHandler) RegisterRoutes(rg *gin.RouterGroup) {
	tasks := rg.Group("/tasks")
	tasks.GET("", h.GetTasks)
	tasks.POST("", h.CreateTask)
	tasks.GET("/:id", h.GetTaskByID)
	tasks.PUT("/:id", h.UpdateTask)
	tasks.PATCH("/:id/status", h.UpdateTaskStatus)
	tasks.DELETE("/:id", h.DeleteTask)

	rg.POST("/reminders", h.CreateReminder)
	rg.PUT("/reminders/:id", h.UpdateReminder)
	rg.POST("/daily-tasks", h.CreateDailyTask)
	rg.PUT("/daily-tasks/:id", h.UpdateDailyTask)
}
