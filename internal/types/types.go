// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles:
// handlers, validation and storage can all import types without depending
// on each other.
package types

// Student represents a student record in our system.
//
// Struct tags:
//
//  1. json:"..." controls how the field appears in request/response bodies.
//  2. db:"..."   maps the field to a column for sqlx scanning.
type Student struct {
	ID    int64  `json:"id"    db:"id"`
	Name  string `json:"name"  db:"name"`
	Email string `json:"email" db:"email"`
	Age   int    `json:"age"   db:"age"`
	Phone string `json:"phone" db:"phone"`
}

// StudentInput is the create payload. Every field is required.
//
// Fields are pointers so that "missing" and "zero" can be told apart:
// an age of 0 is a value, an absent age is a validation failure.
// validate:"..." rules are checked by go-playground/validator; "phone" is a
// custom rule registered by the validation package.
type StudentInput struct {
	Name  *string `json:"name"  validate:"required,min=1"`
	Email *string `json:"email" validate:"required,email"`
	Age   *int    `json:"age"   validate:"required"`
	Phone *string `json:"phone" validate:"required,phone"`
}

// Student converts a validated input into a Student without an ID.
// Call it only after validation succeeded.
func (in StudentInput) Student() Student {
	return Student{
		Name:  *in.Name,
		Email: *in.Email,
		Age:   *in.Age,
		Phone: *in.Phone,
	}
}

// StudentPatch is the partial update payload. A nil field is left alone.
// An empty name is ignored as well; email and phone keep their format
// rules whenever they are present.
type StudentPatch struct {
	Name  *string `json:"name,omitempty"  validate:"omitempty"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
	Age   *int    `json:"age,omitempty"`
	Phone *string `json:"phone,omitempty" validate:"omitempty,phone"`
}

// Fields returns the column/value pairs that an update should touch,
// in a stable order.
func (p StudentPatch) Fields() []Field {
	var fields []Field
	if p.Name != nil && *p.Name != "" {
		fields = append(fields, Field{Column: "name", Value: *p.Name})
	}
	if p.Email != nil && *p.Email != "" {
		fields = append(fields, Field{Column: "email", Value: *p.Email})
	}
	if p.Age != nil {
		fields = append(fields, Field{Column: "age", Value: *p.Age})
	}
	if p.Phone != nil && *p.Phone != "" {
		fields = append(fields, Field{Column: "phone", Value: *p.Phone})
	}
	return fields
}

// Field is one column assignment of a partial update.
type Field struct {
	Column string
	Value  any
}
