package request

import (
	"fmt"
	"io"
	"mime/multipart"
)

type Generate struct {
	File        *multipart.FileHeader `form:"file"`        // sketch to transform, required
	Description *string               `form:"description"` // free text, nil when not sent
}

func (g *Generate) Valid() error {
	if g.File == nil {
		return fmt.Errorf("no image file provided")
	}
	return nil
}

func (g *Generate) ReadFile() ([]byte, error) {
	f, err := g.File.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
