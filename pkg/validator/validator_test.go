package validator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Name     string    `validate:"required,min=2"`
	Email    string    `validate:"required,email"`
	Deadline time.Time `validate:"future"`
	Seats    int       `validate:"positive"`
}

func validSample() sample {
	return sample{
		Name:     "Robotics Workshop",
		Email:    "owner@example.com",
		Deadline: time.Now().Add(24 * time.Hour),
		Seats:    30,
	}
}

func TestValidate_OK(t *testing.T) {
	assert.NoError(t, Validate(context.Background(), validSample()))
}

func TestValidate_Required(t *testing.T) {
	s := validSample()
	s.Name = ""

	err := Validate(context.Background(), s)

	assert.ErrorContains(t, err, ErrFieldRequired)
}

func TestValidate_Email(t *testing.T) {
	s := validSample()
	s.Email = "not-an-email"

	err := Validate(context.Background(), s)

	assert.ErrorContains(t, err, "Invalid email address")
}

func TestValidate_Future(t *testing.T) {
	s := validSample()
	s.Deadline = time.Now().Add(-time.Hour)

	err := Validate(context.Background(), s)

	assert.ErrorContains(t, err, "Date must be in the future")
}

func TestValidate_Positive(t *testing.T) {
	s := validSample()
	s.Seats = 0

	err := Validate(context.Background(), s)

	assert.ErrorContains(t, err, "Value must be positive")
}
