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

package templates

import (
	"net/url"
	"path"

	"github.com/spf13/viper"
)

func init() {
	viper.SetDefault("site.name", "rundbrief")
	viper.SetDefault("site.domain", "localhost")
	viper.SetDefault("site.scheme", "https")
}

// Site is the public web presence links in emails point to.
type Site struct {
	Name   string
	Domain string
	Scheme string
}

// SiteFromViper reads the site from the configuration.
//
// `site.name` is the human readable name.
// `site.domain` is the host part of links.
// `site.scheme` is either `http` or `https`.
func SiteFromViper() Site {
	return Site{
		Name:   viper.GetString("site.name"),
		Domain: viper.GetString("site.domain"),
		Scheme: viper.GetString("site.scheme"),
	}
}

// URL returns an absolute url for the path segments. The url always ends with a slash.
func (s Site) URL(segments ...string) string {
	u := url.URL{
		Scheme: s.Scheme,
		Host:   s.Domain,
		Path:   path.Join(append([]string{"/"}, segments...)...),
	}

	if u.Path != "/" {
		u.Path += "/"
	}

	return u.String()
}

// UnsubscribeURL is the page to unsubscribe from a newsletter.
func (s Site) UnsubscribeURL(slug string) string {
	return s.URL("newsletter", slug, "unsubscribe")
}

// ActivationURL is the page confirming an action with an activation code.
func (s Site) ActivationURL(slug, action, code string) string {
	return s.URL("newsletter", slug, action, code)
}
