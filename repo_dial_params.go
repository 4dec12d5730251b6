package libemit

import (
	"context"
)

type (
	// DialParamsGetter produces the parameters for the next dial attempt.
	// Implementations may mint fresh credentials on every call.
	DialParamsGetter func(ctx context.Context) (DialParams, error)

	DialParamsRepo struct {
		logger Logger
		getter DialParamsGetter
	}
)

func (r DialParamsRepo) Get(ctx context.Context) (params DialParams, err error) {
	params, err = r.getter(ctx)
	if err != nil {
		r.logger.Errorf("cannot fetch dial params: %s", err)
	}
	return
}

func NewDialParamsRepo(logger Logger, getter DialParamsGetter) DialParamsRepo {
	return DialParamsRepo{getter: getter, logger: logger}
}
