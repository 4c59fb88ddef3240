package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrDuplicate  = errors.New("duplicate key")
	ErrForeignKey = errors.New("foreign key violation")
	ErrCheck      = errors.New("check constraint violation")
)

// TranslateError maps driver specific constraint failures onto ErrDuplicate,
// ErrForeignKey and ErrCheck. Anything else is returned unchanged.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return fmt.Errorf("%s: %w", pgErr.ConstraintName, ErrDuplicate)
		case pgerrcode.ForeignKeyViolation:
			return fmt.Errorf("%s: %w", pgErr.ConstraintName, ErrForeignKey)
		case pgerrcode.CheckViolation:
			return fmt.Errorf("%s: %w", pgErr.ConstraintName, ErrCheck)
		}
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%v: %w", err, ErrDuplicate)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%v: %w", err, ErrForeignKey)
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return fmt.Errorf("%v: %w", err, ErrCheck)
	}

	// sqlite reports constraint failures only through the message text
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%v: %w", err, ErrDuplicate)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%v: %w", err, ErrForeignKey)
	case strings.Contains(msg, "CHECK constraint failed"):
		return fmt.Errorf("%v: %w", err, ErrCheck)
	}
	return err
}
