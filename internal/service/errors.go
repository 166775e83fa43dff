package service

import (
	apperrors "github.com/pct1089547896/games-marketplace-sub000/pkg/errors"
)

// storeErr passes typed application errors through and reports anything
// else from the repositories as a StoreError for op.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if apperrors.IsAppError(err) {
		return err
	}
	return apperrors.StoreFailure(op, err)
}
