package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/prepday/internal/catalog"
	"github.com/abhisek/prepday/internal/daily"
	"github.com/abhisek/prepday/internal/progress"
)

func healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	var serr *daily.StoreError
	switch {
	case errors.Is(err, daily.ErrNoEligibleModules), errors.Is(err, daily.ErrNotAssigned):
		return http.StatusConflict
	case errors.Is(err, catalog.ErrUnknownModule):
		return http.StatusNotFound
	case errors.As(err, &serr):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(err error, msg string) gin.H {
	h := gin.H{"error": err.Error()}
	if msg != "" {
		h["message"] = msg
	}
	return h
}

func writeResult(c *gin.Context, res *daily.Result) {
	if !res.Success {
		c.JSON(statusFor(res.Err), gin.H{"error": res.Error(), "result": res})
		return
	}
	c.JSON(http.StatusOK, res)
}

func listCatalog(svc *daily.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		mods := svc.Catalog().All()
		if s := c.Query("category"); s != "" {
			cat, err := catalog.ParseCategory(s)
			if err != nil {
				c.JSON(http.StatusBadRequest, errorBody(err, ""))
				return
			}
			mods = svc.Catalog().ByCategory(cat)
		}
		if s := c.Query("group"); s != "" {
			g, err := strconv.Atoi(s)
			if err != nil {
				c.JSON(http.StatusBadRequest, errorBody(err, "group must be a number"))
				return
			}
			kept := mods[:0]
			for _, m := range mods {
				if int(m.Group) == g {
					kept = append(kept, m)
				}
			}
			mods = kept
		}
		c.JSON(http.StatusOK, gin.H{"modules": mods})
	}
}

func getToday(svc *daily.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := svc.Today(c.Request.Context(), c.Param("user"))
		if err != nil {
			c.JSON(statusFor(err), errorBody(err, ""))
			return
		}
		c.JSON(http.StatusOK, v)
	}
}

func postTransition(svc *daily.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := svc.CheckAndTransitionIfNewDay(c.Request.Context(), c.Param("user"))
		if res == nil {
			c.JSON(http.StatusOK, gin.H{"transitioned": false})
			return
		}
		if !res.Success {
			writeResult(c, res)
			return
		}
		c.JSON(http.StatusOK, gin.H{"transitioned": true, "result": res})
	}
}

func postGenerate(svc *daily.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		writeResult(c, svc.GenerateDailyAssignments(c.Request.Context(), c.Param("user")))
	}
}

func postToggle(svc *daily.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.ToggleCompletion(c.Request.Context(), c.Param("user"), c.Param("module"))
		if err != nil {
			c.JSON(statusFor(err), errorBody(err, ""))
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func getStats(svc *daily.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sortKey, err := progress.ParseSort(c.Query("sort"))
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody(err, ""))
			return
		}
		var cat catalog.Category
		if s := c.Query("category"); s != "" {
			if cat, err = catalog.ParseCategory(s); err != nil {
				c.JSON(http.StatusBadRequest, errorBody(err, ""))
				return
			}
		}
		st, err := svc.State(c.Request.Context(), c.Param("user"))
		if err != nil {
			c.JSON(statusFor(err), errorBody(err, ""))
			return
		}
		report := progress.Build(svc.Catalog(), st, svc.Policy(), progress.Options{
			Sort:     sortKey,
			Category: cat,
			Today:    svc.Clock().Today(),
		})
		c.JSON(http.StatusOK, report)
	}
}

func deleteUser(svc *daily.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Reset(c.Request.Context(), c.Param("user")); err != nil {
			c.JSON(statusFor(err), errorBody(err, ""))
			return
		}
		c.Status(http.StatusNoContent)
	}
}
