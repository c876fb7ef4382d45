package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const pgForeignKeyViolation = "23503"

// ErrorHandler writes every error as a JSON body with a message field.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil {
			c.Logger().Errorf(
				"handler internal error %s [%d]: %+v\n",
				c.Request().URL.Path, he.Code, he.Internal,
			)
		}
		message := he.Message
		if _, ok := message.(string); !ok {
			message = http.StatusText(he.Code)
		}
		if err := c.JSON(he.Code, echo.HTTPError{Message: message}); err != nil {
			log.Printf("err returning json: %+v\n", err)
		}
		return
	}

	c.Logger().Errorf("handler error: %+v\n", err)
	if err := c.JSON(
		http.StatusInternalServerError,
		echo.HTTPError{Message: "something went terribly wrong"},
	); err != nil {
		log.Printf("err returning json: %+v\n", err)
	}
}

func isForeignKeyConstraintError(err error) bool {
	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) {
		return sqErr.Code() == sqlite3.SQLITE_CONSTRAINT_TRIGGER ||
			sqErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgForeignKeyViolation
	}
	return false
}

func newError(err error, status int, message string) error {
	e := echo.NewHTTPError(status, message)
	if err != nil {
		e = e.WithInternal(err)
	}
	return e
}
