// Package binder fills request structs from query strings, form bodies and
// JSON bodies, selected by struct tags.
package binder

import (
	"fmt"
	"mime"
	"net/http"
)

const maxMultipartMemory = 1 << 20

// Form binds url-encoded or multipart form values using `form:"name"` tags.
// Other content types yield ErrBinderNotApplicable.
//
//	type SignUpRequest struct {
//		Email      string `form:"email"`
//		Password   string `form:"password"`
//		TesterCode string `form:"tester_code"`
//	}
func Form() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

		switch mediaType {
		case "application/x-www-form-urlencoded":
			if err := r.ParseForm(); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidForm, err)
			}
			return bindToStruct(v, "form", r.PostForm, ErrInvalidForm)
		case "multipart/form-data":
			if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidForm, err)
			}
			return bindToStruct(v, "form", r.MultipartForm.Value, ErrInvalidForm)
		default:
			return ErrBinderNotApplicable
		}
	}
}

// Query binds URL query parameters using `query:"name"` tags.
func Query() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		return bindToStruct(v, "query", r.URL.Query(), ErrInvalidQuery)
	}
}
