package main

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	vterrors "github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/engine"
	"github.com/vango-dev/vtree/pkg/fixture"
	"github.com/vango-dev/vtree/pkg/snapshot"
	"github.com/vango-dev/vtree/pkg/vdom"
)

// loaded is a fixture file built into views.
type loaded struct {
	path  string
	name  string
	views []*vdom.Node
}

// yamlLine extracts the line number from a yaml.v3 error message.
var yamlLine = regexp.MustCompile(`line (\d+)`)

// loadFixture parses and builds the fixture at path. Errors come back as
// coded errors pointing into the file.
func loadFixture(path string, reg *fixture.Registry) (*loaded, error) {
	doc, err := fixture.Load(path)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil, vterrors.New("E205").Wrap(err)
		case errors.Is(err, fixture.ErrNoViews):
			return nil, vterrors.New("E204").Wrap(err).WithLocation(path, 0, 0)
		}
		e := vterrors.New("E202").Wrap(err)
		if m := yamlLine.FindStringSubmatch(err.Error()); m != nil {
			line, _ := strconv.Atoi(m[1])
			e = e.WithLocation(path, line, 0)
		}
		return nil, e
	}

	views, err := doc.Build(reg)
	if err != nil {
		code := "E201"
		if errors.Is(err, fixture.ErrHandlerKind) {
			code = "E203"
		}
		e := vterrors.New(code).Wrap(err)
		var ne *fixture.NodeError
		if errors.As(err, &ne) {
			e = e.WithLocation(path, ne.Line, ne.Column)
		}
		return nil, e
	}

	name := doc.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &loaded{path: path, name: name, views: views}, nil
}

// loadViews concatenates the views of every file in order.
func loadViews(paths []string, reg *fixture.Registry) ([]*vdom.Node, error) {
	var views []*vdom.Node
	for _, p := range paths {
		l, err := loadFixture(p, reg)
		if err != nil {
			return nil, err
		}
		views = append(views, l.views...)
	}
	return views, nil
}

// classify maps err to a coded error for printing.
func classify(err error) *vterrors.Error {
	var e *vterrors.Error
	if errors.As(err, &e) {
		return e
	}
	var (
		mismatch *snapshot.MismatchError
		apply    *vdom.ApplyError
	)
	switch {
	case errors.As(err, &mismatch):
		return vterrors.New("E402").Wrap(err)
	case errors.Is(err, snapshot.ErrNotFound):
		return vterrors.New("E401").Wrap(err).
			WithSuggestion("Record it with: vtree snapshot save FILE")
	case errors.Is(err, snapshot.ErrInvalidName), errors.Is(err, snapshot.ErrCorrupt):
		return vterrors.New("E403").Wrap(err)
	case errors.Is(err, engine.ErrStale):
		return vterrors.New("E105").Wrap(err)
	case errors.Is(err, vdom.ErrUnknownPatch):
		return vterrors.New("E102").Wrap(err)
	case errors.As(err, &apply):
		return vterrors.New("E101").Wrap(err).
			WithDetail(fmt.Sprintf("The %s patch at index %d failed.", apply.Kind, apply.Index))
	}
	return vterrors.Newf(vterrors.CategoryCLI, "%v", err)
}
