// Copyright (C) 2020  Lukas Dietrich <lukas@lukasdietrich.com>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package templates resolves and renders the liquid templates of newsletter emails.
package templates

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/google/wire"
	"github.com/k3a/html2text"
	"github.com/osteele/liquid"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/lukasdietrich/rundbrief/internal/log"
	"github.com/lukasdietrich/rundbrief/internal/models"
)

// WireSet contains providers for template resolution.
var WireSet = wire.NewSet(
	OptionsFromViper,
	SiteFromViper,
	NewFilesystem,
	NewResolver,
)

// ErrTemplateNotFound is returned if neither a newsletter specific nor a default template exists.
var ErrTemplateNotFound = errors.New("templates: template not found")

func init() {
	viper.SetDefault("templates.foldername", "templates")
}

// Options configure the template folder.
type Options struct {
	Foldername string
}

// OptionsFromViper reads the template options.
//
// `templates.foldername` is the root folder containing the `message` templates.
func OptionsFromViper() Options {
	return Options{
		Foldername: viper.GetString("templates.foldername"),
	}
}

// Filesystem is the filesystem templates are read from.
type Filesystem afero.Fs

// NewFilesystem returns a read only view on the template folder.
func NewFilesystem(opts Options) Filesystem {
	return afero.NewReadOnlyFs(afero.NewBasePathFs(afero.NewOsFs(), opts.Foldername))
}

// Set is the group of templates used to compose one email.
type Set struct {
	Subject *liquid.Template
	Text    *liquid.Template
	// HTML is nil if the newsletter does not send html.
	HTML *liquid.Template
}

// Rendered is the output of a Set.
type Rendered struct {
	Subject string
	Text    string
	HTML    string
}

// Render executes all templates of the set with the same bindings.
func (s *Set) Render(bindings map[string]any) (*Rendered, error) {
	var rendered Rendered

	subject, err := s.Subject.RenderString(bindings)
	if err != nil {
		return nil, fmt.Errorf("could not render subject: %w", err)
	}

	rendered.Subject = singleLine(subject)

	if rendered.Text, err = s.Text.RenderString(bindings); err != nil {
		return nil, fmt.Errorf("could not render text: %w", err)
	}

	if s.HTML != nil {
		if rendered.HTML, err = s.HTML.RenderString(bindings); err != nil {
			return nil, fmt.Errorf("could not render html: %w", err)
		}
	}

	return &rendered, nil
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Resolver looks up the templates of a newsletter.
type Resolver interface {
	// Resolve returns the templates used for the action of a newsletter. Newsletter specific
	// templates take precedence over the default ones.
	Resolve(*models.NewsletterEntity, models.Action) (*Set, error)
}

type resolver struct {
	fs     Filesystem
	engine *liquid.Engine
}

// NewResolver creates a new Resolver reading from fs.
func NewResolver(fs Filesystem) Resolver {
	engine := liquid.NewEngine()
	engine.RegisterFilter("plaintext", func(s string) string {
		return html2text.HTML2Text(s)
	})

	return &resolver{
		fs:     fs,
		engine: engine,
	}
}

func (r *resolver) Resolve(newsletter *models.NewsletterEntity, action models.Action) (*Set, error) {
	var (
		set Set
		err error
	)

	if set.Subject, err = r.parse(newsletter.Slug, string(action)+"_subject.txt"); err != nil {
		return nil, err
	}

	if set.Text, err = r.parse(newsletter.Slug, string(action)+".txt"); err != nil {
		return nil, err
	}

	if newsletter.SendHTML {
		if set.HTML, err = r.parse(newsletter.Slug, string(action)+".html"); err != nil {
			return nil, err
		}
	}

	return &set, nil
}

func (r *resolver) parse(slug, name string) (*liquid.Template, error) {
	source, filename, err := r.read(slug, name)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("template", filename).
		Msg("parsing template")

	tpl, parseErr := r.engine.ParseString(source)
	if parseErr != nil {
		return nil, fmt.Errorf("could not parse template %q: %w", filename, parseErr)
	}

	return tpl, nil
}

func (r *resolver) read(slug, name string) (string, string, error) {
	for _, filename := range []string{
		path.Join("message", slug, name),
		path.Join("message", name),
	} {
		content, err := afero.ReadFile(r.fs, filename)
		if err == nil {
			return string(content), filename, nil
		}

		if !errors.Is(err, os.ErrNotExist) {
			return "", filename, err
		}
	}

	return "", "", fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
}
