package handlers

import (
	"encoding/json"
	stderrors "errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

var (
	errInvalidPage = stderrors.New("page must be a positive integer")
	errInvalidID   = stderrors.New("id must be a positive integer")
)

// parsePage parses the 1-based page query parameter; absent means page 1
func parsePage(value string) (int, error) {
	param := strings.TrimSpace(value)
	if param == "" {
		return 1, nil
	}

	page, err := strconv.Atoi(param)
	if err != nil || page < 1 {
		return 0, errInvalidPage
	}
	return page, nil
}

// parseExpenseID reads the :id path parameter
func parseExpenseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, errInvalidID
	}
	return id, nil
}

// pageURL returns the absolute URL of the current request pointed at page.
// Page 1 is addressed by dropping the page parameter.
func pageURL(c echo.Context, page int) string {
	req := c.Request()

	query := req.URL.Query()
	if page <= 1 {
		query.Del("page")
	} else {
		query.Set("page", strconv.Itoa(page))
	}

	u := url.URL{
		Scheme:   c.Scheme(),
		Host:     req.Host,
		Path:     req.URL.Path,
		RawQuery: query.Encode(),
	}
	return u.String()
}

// bindErrorField names the request field a body decoding error refers to, if any
func bindErrorField(err error) string {
	var httpErr *echo.HTTPError
	if stderrors.As(err, &httpErr) && httpErr.Internal != nil {
		err = httpErr.Internal
	}

	var typeErr *json.UnmarshalTypeError
	if stderrors.As(err, &typeErr) && typeErr.Field != "" {
		return typeErr.Field
	}

	// shopspring/decimal reports its own decoding errors for the amount field
	if strings.Contains(err.Error(), "decimal") {
		return "amount"
	}
	return ""
}
