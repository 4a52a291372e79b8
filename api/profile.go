package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"taskboard-api/domain"
	"taskboard-api/prefs"
)

func getMe(svc Services) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := svc.Auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		ctx := c.Request().Context()

		resp := meResponse{ID: userID}
		var docTheme string
		user, err := svc.Users.GetUser(ctx, userID)
		switch {
		case err == nil:
			resp.Name = user.Name
			resp.Email = user.Email
			docTheme = user.Theme
		case errors.Is(err, domain.ErrNotFound):
			// First visit: no profile document yet.
		default:
			return domainStatus(c, err)
		}

		theme, err := svc.Prefs.Theme(ctx, userID)
		if err != nil {
			return domainStatus(c, err)
		}
		// The preference entry wins; the document copy covers a lost
		// preference store.
		if theme == "" {
			theme = docTheme
		}
		if theme == "" {
			theme = prefs.ThemeLight
		}
		resp.Theme = theme
		return c.JSON(http.StatusOK, resp)
	}
}

func putTheme(svc Services) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := svc.Auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var req themeRequest
		if err := decodeBody(c, &req); err != nil {
			return err
		}
		ctx := c.Request().Context()
		if err := svc.Prefs.SetTheme(ctx, userID, req.Theme); err != nil {
			return domainStatus(c, err)
		}
		// Mirror onto the profile document so other devices pick it up.
		// Users without a document yet only have the preference entry.
		if err := svc.Users.UpdateUserTheme(ctx, userID, req.Theme); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return domainStatus(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// postHandoff stages the signed-in identity ahead of a federated
// redirect, so the account can be linked when the provider sends the
// user back.
func postHandoff(svc Services) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := svc.Auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var req handoffRequest
		if err := decodeBody(c, &req); err != nil {
			return err
		}
		h := prefs.Handoff{UserID: userID, Email: req.Email}
		if err := svc.Prefs.StageHandoff(c.Request().Context(), h); err != nil {
			return domainStatus(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// postProfile consumes the staged handoff and writes the user's profile
// document. Without a staged handoff the request is rejected so a stray
// replay cannot overwrite an existing profile.
func postProfile(svc Services) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := svc.Auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var req profileRequest
		if err := decodeBody(c, &req); err != nil {
			return err
		}
		ctx := c.Request().Context()

		h, err := svc.Prefs.TakeHandoff(ctx, userID)
		if errors.Is(err, prefs.ErrNoHandoff) {
			return c.JSON(http.StatusConflict, errorResponse{Error: "no pending sign-in"})
		}
		if err != nil {
			return domainStatus(c, err)
		}

		email := req.Email
		if email == "" {
			email = h.Email
		}
		theme, err := svc.Prefs.Theme(ctx, userID)
		if err != nil {
			return domainStatus(c, err)
		}
		if theme == "" {
			theme = prefs.ThemeLight
		}
		user := domain.User{ID: userID, Name: req.Name, Email: email, Theme: theme}
		if err := svc.Users.PutUser(ctx, user); err != nil {
			return domainStatus(c, err)
		}
		return c.JSON(http.StatusCreated, user)
	}
}
