package controllers

import (
	"github.com/Inventra/Inventra-Backend/src/apperrors"
	"github.com/Inventra/Inventra-Backend/src/middleware"
	"github.com/Inventra/Inventra-Backend/src/services"
	"github.com/gin-gonic/gin"
)

type SessionController struct{}

func NewSessionController() *SessionController {
	return &SessionController{}
}

func (sc *SessionController) sessions(c *gin.Context) *services.SessionService {
	return services.NewSessionService(middleware.TenantDB(c))
}

func (sc *SessionController) GetAllSessions(c *gin.Context) {
	sessions, err := sc.sessions(c).GetAllSessions()
	if err != nil {
		c.JSON(apperrors.StatusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, sessions)
}

func (sc *SessionController) CreateSession(c *gin.Context) {
	var body struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	session, err := sc.sessions(c).CreateSession(body.Name)
	if err != nil {
		c.JSON(apperrors.StatusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(201, session)
}

func (sc *SessionController) CloseSession(c *gin.Context) {
	session, err := sc.sessions(c).CloseSession(c.Param("id"))
	if err != nil {
		c.JSON(apperrors.StatusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, session)
}

func (sc *SessionController) GetDashboard(c *gin.Context) {
	dashboard, err := sc.sessions(c).Dashboard()
	if err != nil {
		c.JSON(apperrors.StatusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, dashboard)
}

func (sc *SessionController) ExportSession(c *gin.Context) {
	file, err := sc.sessions(c).ExportSessionExcel(c.Param("id"))
	if err != nil {
		c.JSON(apperrors.StatusOf(err), gin.H{"error": err.Error()})
		return
	}
	serveFile(c, file)
}
