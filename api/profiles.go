package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/skillswap/skillswap/db"
	"github.com/skillswap/skillswap/service/security"
	"gorm.io/gorm"
)

// Request struct for creating or updating the caller's profile
type UpsertProfileRequest struct {
	Name               string `json:"name"`
	Teach              string `json:"teach"`
	Learn              string `json:"learn"`
	Location           string `json:"location"`
	About              string `json:"about"`
	TeachingExperience string `json:"teaching_experience"`
	Contact            string `json:"contact"`
}

// Validation failure response carrying the offending fields, so the client
// can flag them inline
type ValidationErrorResponse struct {
	Message string   `json:"error"`
	Fields  []string `json:"fields"`
}

// Handler for profile upsert. An account owns at most one profile: a second
// submission overwrites the first.
func (server *Server) HandleUpsertProfile(ctx *gin.Context) {
	// Get the request body and validate
	var req UpsertProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	// Teach and learn are required; reject before touching the database
	var missing []string
	if strings.TrimSpace(req.Teach) == "" {
		missing = append(missing, "teach")
	}
	if strings.TrimSpace(req.Learn) == "" {
		missing = append(missing, "learn")
	}
	if len(missing) > 0 {
		ctx.JSON(http.StatusBadRequest, ValidationErrorResponse{
			Message: "Required fields are missing",
			Fields:  missing,
		})
		return
	}

	claims, _ := ctx.Get(claimsKey)
	requesterID := claims.(*security.CustomClaims).ID

	// Check if the requester already has a profile
	var profile db.Profile
	result := server.queries.DB.Where("account_id = ?", requesterID).First(&profile)
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		server.logger.Error("PUT /api/profiles/me: failed to fetch profile", "error", result.Error)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	created := errors.Is(result.Error, gorm.ErrRecordNotFound)

	profile.AccountID = requesterID
	profile.Name = strings.TrimSpace(req.Name)
	profile.Teach = strings.TrimSpace(req.Teach)
	profile.Learn = strings.TrimSpace(req.Learn)
	profile.Location = strings.TrimSpace(req.Location)
	profile.About = req.About
	profile.TeachingExperience = req.TeachingExperience
	profile.Contact = strings.TrimSpace(req.Contact)

	if created {
		result = server.queries.DB.Create(&profile)
	} else {
		result = server.queries.DB.Save(&profile)
	}
	if result.Error != nil {
		server.logger.Error("PUT /api/profiles/me: failed to save profile", "error", result.Error)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	if created {
		ctx.JSON(http.StatusCreated, profile)
		return
	}
	ctx.JSON(http.StatusOK, profile)
}

// Handler for listing profiles, newest first. An optional q parameter narrows
// the list to profiles whose teach, learn, name or location contains the term
// case-insensitively.
func (server *Server) HandleListProfiles(ctx *gin.Context) {
	query := server.queries.DB.Order("created_at desc, id desc")

	if q := strings.TrimSpace(ctx.Query("q")); q != "" {
		term := "%" + strings.ToLower(q) + "%"
		query = query.Where(
			"LOWER(teach) LIKE ? OR LOWER(learn) LIKE ? OR LOWER(name) LIKE ? OR LOWER(location) LIKE ?",
			term, term, term, term,
		)
	}

	var profiles []db.Profile
	result := query.Find(&profiles)
	if result.Error != nil {
		server.logger.Error("GET /api/profiles: failed to fetch profiles", "error", result.Error)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, map[string]any{
		"total":    len(profiles),
		"profiles": profiles,
	})
}

// Handler for fetching one profile by its owning account ID
func (server *Server) HandleGetProfile(ctx *gin.Context) {
	accountID := ctx.Param("id")

	var profile db.Profile
	result := server.queries.DB.Where("account_id = ?", accountID).First(&profile)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{"No profile for this account"})
			return
		}

		server.logger.Error("GET /api/profiles/:id: failed to fetch profile", "error", result.Error)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, profile)
}
