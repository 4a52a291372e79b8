package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskboard-api/domain"
)

const idempotencyKeyHeader = "Idempotency-Key"

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, svc Services, logger *log.Logger) {
	e.Validator = NewRequestValidator()

	e.GET("/api/boards", getBoards(svc, logger))
	e.POST("/api/boards", postBoard(svc))
	e.GET("/api/boards/:id", getBoard(svc))
	e.PATCH("/api/boards/:id", patchBoard(svc))
	e.DELETE("/api/boards/:id", deleteBoard(svc))
	e.POST("/api/boards/:id/share", shareBoard(svc))
	e.POST("/api/boards/join", joinBoard(svc))

	e.GET("/api/boards/:id/tasks", getTasks(svc, logger))
	e.POST("/api/boards/:id/tasks", postTask(svc))
	e.PATCH("/api/boards/:id/tasks/:taskId", patchTask(svc))
	e.DELETE("/api/boards/:id/tasks/:taskId", deleteTask(svc))

	e.GET("/api/me", getMe(svc))
	e.PUT("/api/me/theme", putTheme(svc))
	e.POST("/api/profile/handoff", postHandoff(svc))
	e.POST("/api/profile", postProfile(svc))

	e.GET("/healthz", healthz())
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

// decodeBody decodes and validates a JSON request body. Unknown fields
// and oversized payloads are rejected.
func decodeBody(c echo.Context, out any) error {
	lr := io.LimitReader(c.Request().Body, requestMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	return c.Validate(out)
}

// domainStatus maps domain sentinel errors onto HTTP responses.
func domainStatus(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, domain.ErrNotOwner):
		return c.JSON(http.StatusForbidden, errorResponse{Error: "not the owner"})
	case errors.Is(err, domain.ErrAlreadyMember):
		return c.JSON(http.StatusConflict, errorResponse{Error: "already a member"})
	default:
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// claimIdempotencyKey reserves the request's Idempotency-Key, when one is
// present. The returned release func undoes the reservation so a failed
// create can be retried with the same key.
func claimIdempotencyKey(c echo.Context, deduper Deduper, userID string) (release func(), replay bool, err error) {
	key := c.Request().Header.Get(idempotencyKeyHeader)
	if key == "" || deduper == nil {
		return func() {}, false, nil
	}
	ctx := c.Request().Context()
	added, err := deduper.Add(ctx, userID, key)
	if err != nil {
		return nil, false, err
	}
	if !added {
		return nil, true, nil
	}
	return func() {
		if err := deduper.Remove(context.WithoutCancel(ctx), userID, key); err != nil {
			c.Logger().Errorf("release idempotency key: %v", err)
		}
	}, false, nil
}

func getBoards(svc Services, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newRequestMetrics(ctx, logger, "/api/boards")
		c.SetRequest(c.Request().WithContext(spanCtx))
		ctx = spanCtx
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		userID, authErr := svc.Auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		metrics.ObserveAuth(time.Since(authStart))
		if authErr != nil {
			metrics.SetErrorStage("auth")
			err = c.String(http.StatusUnauthorized, authErr.Error())
			return err
		}

		fetchStart := time.Now()
		boards, fetchErr := svc.Boards.FetchOwnedAndShared(ctx, userID)
		metrics.ObserveFetch(time.Since(fetchStart))
		if fetchErr != nil {
			metrics.SetErrorStage("storage")
			err = domainStatus(c, fetchErr)
			return err
		}
		metrics.SetItemsReturned(len(boards))
		err = c.JSON(http.StatusOK, boards)
		return err
	}
}

func postBoard(svc Services) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := svc.Auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var req createBoardRequest
		if err := decodeBody(c, &req); err != nil {
			return err
		}
		release, replay, err := claimIdempotencyKey(c, svc.Deduper, userID)
		if err != nil {
			return domainStatus(c, err)
		}
		if replay {
			return c.JSON(http.StatusConflict, errorResponse{Error: "duplicate request"})
		}

		board, err := svc.Boards.Create(c.Request().Context(), userID, req.Title, req.Description)
		if err != nil {
			release()
			return domainStatus(c, err)
		}
		return c.JSON(http.StatusCreated, board)
	}
}

func getBoard(svc Services) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := svc.Auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization")); err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		board, err := svc.Boards.FetchByID(c.Request().Context(), c.Param("id"))
		if err != nil {
			return domainStatus(c, err)
		}
		return c.JSON(http.StatusOK, board)
	}
}

func patchBoard(svc Services) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := svc.Auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization")); err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var req boardPatchRequest
		if err := decodeBody(c, &req); err != nil {
			return err
		}
		patch := domain.BoardPatch{Title: req.Title, Description: req.Description}
		if err := svc.Boards.Update(c.Request().Context(), c.Param("id"), patch); err != nil {
			return domainStatus(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func deleteBoard(svc Services) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := svc.Auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		if err := svc.Boards.DeleteByID(c.Request().Context(), c.Param("id"), userID); err != nil {
			return domainStatus(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func shareBoard(svc Services) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := svc.Auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization")); err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		code, err := svc.Boards.EnsureAccessCode(c.Request().Context(), c.Param("id"))
		if err != nil {
			return domainStatus(c, err)
		}
		return c.JSON(http.StatusOK, shareBoardResponse{AccessCode: code})
	}
}

func joinBoard(svc Services) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := svc.Auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var req joinBoardRequest
		if err := decodeBody(c, &req); err != nil {
			return err
		}
		board, err := svc.Boards.JoinByAccessCode(c.Request().Context(), req.AccessCode, userID)
		if err != nil {
			return domainStatus(c, err)
		}
		return c.JSON(http.StatusOK, board)
	}
}

func getTasks(svc Services, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newRequestMetrics(ctx, logger, "/api/boards/:id/tasks")
		c.SetRequest(c.Request().WithContext(spanCtx))
		ctx = spanCtx
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		_, authErr := svc.Auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		metrics.ObserveAuth(time.Since(authStart))
		if authErr != nil {
			metrics.SetErrorStage("auth")
			err = c.String(http.StatusUnauthorized, authErr.Error())
			return err
		}

		fetchStart := time.Now()
		tasks, fetchErr := svc.Tasks.FetchAll(ctx, c.Param("id"))
		metrics.ObserveFetch(time.Since(fetchStart))
		if fetchErr != nil {
			metrics.SetErrorStage("storage")
			err = domainStatus(c, fetchErr)
			return err
		}
		metrics.SetItemsReturned(len(tasks))
		err = c.JSON(http.StatusOK, tasks)
		return err
	}
}

func postTask(svc Services) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := svc.Auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var req createTaskRequest
		if err := decodeBody(c, &req); err != nil {
			return err
		}
		release, replay, err := claimIdempotencyKey(c, svc.Deduper, userID)
		if err != nil {
			return domainStatus(c, err)
		}
		if replay {
			return c.JSON(http.StatusConflict, errorResponse{Error: "duplicate request"})
		}

		task, err := svc.Tasks.Add(c.Request().Context(), c.Param("id"), req.Title, req.Description, domain.Status(req.Status), req.AssignedTo)
		if err != nil {
			release()
			return domainStatus(c, err)
		}
		return c.JSON(http.StatusCreated, task)
	}
}

func patchTask(svc Services) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := svc.Auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization")); err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var req taskPatchRequest
		if err := decodeBody(c, &req); err != nil {
			return err
		}
		if err := svc.Tasks.Update(c.Request().Context(), c.Param("id"), c.Param("taskId"), req.toPatch()); err != nil {
			return domainStatus(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func deleteTask(svc Services) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := svc.Auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization")); err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		if err := svc.Tasks.Delete(c.Request().Context(), c.Param("id"), c.Param("taskId")); err != nil {
			return domainStatus(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}
