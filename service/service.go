// Package service implements the library's domain operations on top of the
// store. Every method returns *errs.Error values for expected failures.
package service

import (
	"errors"

	"github.com/kevinaaaquil/shelf/backend/errs"
	"github.com/kevinaaaquil/shelf/backend/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ParseID parses a hex object id, reporting field in the validation error.
func ParseID(raw, field string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, errs.ValidationWithDetails(
			field+" must be a valid id", map[string]string{field: "must be a valid id"})
	}
	return id, nil
}

// storeErr translates store sentinels. what names the missing entity.
func storeErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return errs.NotFound(what + " not found")
	case errors.Is(err, store.ErrDuplicate):
		return errs.Wrap(err, errs.CodeConflict, what+" already exists")
	default:
		return errs.Wrap(err, errs.CodeInternal, "internal server error")
	}
}
