package main

// this file contains implementation of HTTP handlers - REST API

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
)

var (
	service       Service
	streamURLFile string
)

func NewHTTPRouter(_service Service, _streamURLFile string) *echo.Echo {
	service = _service
	streamURLFile = _streamURLFile

	r := echo.New()
	r.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "method=${method}, uri=${uri}, status=${status}\n",
	}))
	r.Use(middleware.CORS())

	router := r.Group("/api")
	router.GET("/test", testDBHandler)
	router.GET("/now-playing", nowPlayingHandler)
	router.GET("/recently-played", recentlyPlayedHandler)
	router.POST("/update-track", updateTrackHandler)
	router.GET("/stream-url", streamURLHandler)
	router.GET("/listener-id", listenerIDHandler)

	trackGroup := router.Group("/tracks")
	{
		trackGroup.POST("/:id/rate", rateTrackHandler)
		trackGroup.POST("/:id/rating-status", ratingStatusHandler)
		trackGroup.GET("/:id/ratings", trackRatingsHandler)
	}

	return r
}

func testDBHandler(c echo.Context) error {
	if err := service.Ping(); err != nil {
		return serviceErrorResponse(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"message": "Database connection working",
	})
}

func nowPlayingHandler(c echo.Context) error {
	np, err := service.GetCurrentTrack()
	if err != nil {
		return serviceErrorResponse(c, err)
	}
	if np == nil {
		// station ident until rotation starts
		return c.JSON(http.StatusOK, echo.Map{
			"status": "success",
			"data": echo.Map{
				"id":            nil,
				"artist":        "Radio Calico",
				"title":         "24-bit Lossless Streaming",
				"album":         "Crystal-Clear Audio",
				"year":          nil,
				"album_art_url": "https://via.placeholder.com/300x300/231F20/D8F2D5?text=Radio+Calico",
				"thumbs_up":     0,
				"thumbs_down":   0,
			},
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status": "success",
		"data":   np,
	})
}

func recentlyPlayedHandler(c echo.Context) error {
	var limit int64
	if raw := c.QueryParam("limit"); raw != "" {
		limit, _ = strconv.ParseInt(raw, 10, 64)
	}

	tracks, err := service.GetRecentlyPlayed(limit)
	if err != nil {
		return serviceErrorResponse(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status": "success",
		"data":   tracks,
	})
}

func updateTrackHandler(c echo.Context) error {
	meta := TrackMetadata{}
	if err := c.Bind(&meta); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"status":  "error",
			"message": "Malformed track metadata",
		})
	}

	track, err := service.SetCurrentTrack(meta)
	if err != nil {
		return serviceErrorResponse(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"message": "Track updated",
		"data":    track,
	})
}

func rateTrackHandler(c echo.Context) error {
	trackID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"status":  "error",
			"message": "Invalid track id",
		})
	}

	form := struct {
		UserID     string `json:"user_id" form:"user_id"`
		RatingType int    `json:"rating_type" form:"rating_type"`
	}{}
	if err := c.Bind(&form); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"status":  "error",
			"message": "Malformed rating payload",
		})
	}

	counts, err := service.SubmitRating(trackID, form.UserID, form.RatingType)
	if err != nil {
		return serviceErrorResponse(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"message": "Rating submitted successfully",
		"data":    counts,
	})
}

func ratingStatusHandler(c echo.Context) error {
	trackID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"status":  "error",
			"message": "Invalid track id",
		})
	}

	form := struct {
		UserID string `json:"user_id" form:"user_id"`
	}{}
	if err := c.Bind(&form); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"status":  "error",
			"message": "Malformed payload",
		})
	}

	status, err := service.GetRatingStatus(trackID, form.UserID)
	if err != nil {
		return serviceErrorResponse(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status": "success",
		"data":   status,
	})
}

func trackRatingsHandler(c echo.Context) error {
	trackID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"status":  "error",
			"message": "Invalid track id",
		})
	}

	counts, err := service.GetAggregateCounts(trackID)
	if err != nil {
		return serviceErrorResponse(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status": "success",
		"data":   counts,
	})
}

func streamURLHandler(c echo.Context) error {
	raw, err := os.ReadFile(streamURLFile)
	if err != nil {
		if os.IsNotExist(err) {
			return c.JSON(http.StatusNotFound, echo.Map{
				"status":  "error",
				"message": "Stream URL file not found",
			})
		}
		return serviceErrorResponse(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":    "success",
		"streamUrl": strings.TrimSpace(string(raw)),
	})
}

// listenerIDHandler mints a fresh opaque listener id for clients that have
// not persisted one yet. There is no account behind it.
func listenerIDHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status": "success",
		"data": echo.Map{
			"user_id": uuid.NewString(),
		},
	})
}

// serviceErrorResponse maps service failures onto HTTP status codes.
func serviceErrorResponse(c echo.Context, err error) error {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, echo.Map{
			"status":  "error",
			"message": verr.Message,
		})
	case errors.Is(err, ErrTrackNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{
			"status":  "error",
			"message": "Track not found",
		})
	case errors.Is(err, ErrDuplicateRating):
		return c.JSON(http.StatusConflict, echo.Map{
			"status":  "error",
			"message": "You have already rated this track",
		})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"status":  "error",
			"message": err.Error(),
		})
	}
}
