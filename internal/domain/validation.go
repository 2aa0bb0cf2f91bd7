package domain

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var roomIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("roomid", func(fl validator.FieldLevel) bool {
		return roomIDPattern.MatchString(fl.Field().String())
	})
	return v
}

var fieldMessages = map[string]string{
	"Name":     "Name must be between 2 and 30 characters",
	"RoomID":   "Room ID must be 1-30 characters of letters, digits, '_' or '-'",
	"Secret":   "Password must be at least 4 characters",
	"Question": "Poll question is required",
	"Options":  "A poll needs at least two options",
}

type CreateRoomRequest struct {
	Name   string `validate:"min=2,max=30"`
	RoomID string `validate:"min=1,max=30,roomid"`
	Secret string `validate:"min=4"`
}

// Validate checks the shape of the request. Existence is the directory's business.
func (r CreateRoomRequest) Validate() error {
	if err := translate(validate.Struct(r)); err != nil {
		return err
	}
	if IsReservedRoomID(r.RoomID) {
		return Validation("Room ID \"Public\" is reserved")
	}
	return nil
}

type CreatePollRequest struct {
	Question string   `validate:"required"`
	Options  []string `validate:"min=2,dive,required"`
}

func (r CreatePollRequest) Validate() error {
	return translate(validate.Struct(r))
}

// translate maps the first validator failure onto a Validation error.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return Validation("Invalid request")
	}
	field, _, _ := strings.Cut(verrs[0].StructField(), "[")
	if msg, ok := fieldMessages[field]; ok {
		return Validation(msg)
	}
	return Validation("Invalid " + field)
}
