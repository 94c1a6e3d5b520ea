package httpapi

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"smartattend/internal/attendance"
	"smartattend/internal/auth"
	"smartattend/internal/roster"
	"smartattend/internal/store"
)

var marksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "attendance_marks_total",
	Help: "Attendance mark attempts by outcome.",
}, []string{"result"})

// Deps are the wired services the HTTP layer dispatches to.
type Deps struct {
	Roster    *roster.Service
	Ledger    *attendance.Service
	Issuer    *auth.Issuer
	Cache     *store.RosterCache
	Redis     *store.Redis
	DBHealthy func() bool
}

// Register mounts all routes on the engine.
func Register(r *gin.Engine, deps Deps) {
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Smart Attendance API", "status": "running"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := deps.Redis.Healthy(c.Request.Context())
		dbHealthy := deps.DBHealthy()
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	r.POST("/auth/register", func(c *gin.Context) { handleRegister(c, deps) })
	r.POST("/auth/login", func(c *gin.Context) { handleLogin(c, deps) })

	authed := r.Group("/", auth.Require(deps.Issuer))
	authed.GET("/students", func(c *gin.Context) { handleListStudents(c, deps) })
	authed.POST("/attendance", func(c *gin.Context) { handleMark(c, deps) })
	authed.GET("/attendance", func(c *gin.Context) { handleQuery(c, deps) })
}

type userDTO struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Role        string  `json:"role"`
	StudentRoll *string `json:"studentRoll,omitempty"`
}

func toUserDTO(u *roster.User) userDTO {
	return userDTO{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, StudentRoll: u.StudentRoll}
}

func handleRegister(c *gin.Context, deps Deps) {
	var req struct {
		Name        string  `json:"name" binding:"required"`
		Email       string  `json:"email" binding:"required"`
		Password    string  `json:"password" binding:"required"`
		Role        string  `json:"role" binding:"required"`
		StudentRoll *string `json:"studentRoll"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	u, err := deps.Roster.Register(c.Request.Context(), req.Name, req.Email, req.Password, req.Role, req.StudentRoll)
	if err != nil {
		fail(c, err)
		return
	}
	deps.Cache.Invalidate(c.Request.Context())

	token, err := deps.Issuer.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token, "user": toUserDTO(u)})
}

func handleLogin(c *gin.Context, deps Deps) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	u, err := deps.Roster.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}

	token, err := deps.Issuer.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": toUserDTO(u)})
}

type studentDTO struct {
	ID         string  `json:"id"`
	Roll       string  `json:"roll"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	AvatarPath *string `json:"avatarPath,omitempty"`
}

func handleListStudents(c *gin.Context, deps Deps) {
	ctx := c.Request.Context()
	students := deps.Cache.Get(ctx)
	if students == nil {
		var err error
		students, err = deps.Roster.ListStudents(ctx)
		if err != nil {
			fail(c, err)
			return
		}
		deps.Cache.Set(ctx, students)
	}

	out := make([]studentDTO, 0, len(students))
	for _, s := range students {
		roll := ""
		if s.StudentRoll != nil {
			roll = *s.StudentRoll
		}
		out = append(out, studentDTO{ID: s.ID, Roll: roll, Name: s.Name, Email: s.Email, AvatarPath: s.AvatarPath})
	}
	c.JSON(http.StatusOK, out)
}

type attendanceDTO struct {
	ID        string `json:"id,omitempty"`
	StudentID string `json:"studentId"`
	Roll      string `json:"roll"`
	Name      string `json:"name"`
	Timestamp string `json:"timestamp"`
	Status    string `json:"status"`
}

func toAttendanceDTO(rec attendance.Record) attendanceDTO {
	return attendanceDTO{
		ID:        rec.ID,
		StudentID: rec.StudentID,
		Roll:      rec.Roll,
		Name:      rec.Name,
		Timestamp: rec.Timestamp.UTC().Format(time.RFC3339),
		Status:    rec.Status,
	}
}

func handleMark(c *gin.Context, deps Deps) {
	var req struct {
		Roll string `json:"roll" binding:"required"`
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := deps.Ledger.Mark(c.Request.Context(), req.Roll, req.Name)
	if err != nil {
		fail(c, err)
		return
	}

	message := "Already marked today"
	if result.Created {
		message = "Attendance marked"
		marksTotal.WithLabelValues("created").Inc()
	} else {
		marksTotal.WithLabelValues("duplicate").Inc()
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "attendance": toAttendanceDTO(result.Record)})
}

func handleQuery(c *gin.Context, deps Deps) {
	records, err := deps.Ledger.Query(c.Request.Context(), c.Query("from_date"), c.Query("to_date"), c.Query("roll"))
	if err != nil {
		fail(c, err)
		return
	}
	out := make([]attendanceDTO, 0, len(records))
	for _, rec := range records {
		out = append(out, toAttendanceDTO(rec))
	}
	c.JSON(http.StatusOK, out)
}

// fail maps domain errors to status codes; anything unexpected is a
// generic unavailable so store detail never reaches the client.
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, roster.ErrDuplicateEmail),
		errors.Is(err, roster.ErrDuplicateRoll),
		errors.Is(err, roster.ErrRollRequired),
		errors.Is(err, roster.ErrInvalidRole),
		errors.Is(err, attendance.ErrBadDate):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, roster.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, attendance.ErrStudentNotFound), errors.Is(err, roster.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
	default:
		log.Printf("request failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
	}
}
