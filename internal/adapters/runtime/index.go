// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

package runtime

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/janderssonse/clawdhost/internal/domain"
	"golang.org/x/net/html"
)

// SelectDarwinArtifact returns the first tarball on a Node.js dist index page
// that exactly matches node-v<major>.x.y-darwin-<arch>.tar.gz.
func SelectDarwinArtifact(page string, major int, arch string) (string, error) {
	pattern := regexp.MustCompile(fmt.Sprintf(`^node-v%d\.\d+\.\d+-darwin-%s\.tar\.gz$`, major, regexp.QuoteMeta(arch)))

	for _, href := range anchors(page) {
		name := href[strings.LastIndex(href, "/")+1:]
		if pattern.MatchString(name) {
			return name, nil
		}
	}

	return "", fmt.Errorf("%w: darwin-%s (node v%d)", domain.ErrNoInstallerForArch, arch, major)
}

// anchors returns the href of every <a> element in document order.
func anchors(page string) []string {
	var hrefs []string

	tokenizer := html.NewTokenizer(strings.NewReader(page))

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			// io.EOF or a malformed page; either way the listing ends here.
			return hrefs
		case html.StartTagToken, html.SelfClosingTagToken:
			token := tokenizer.Token()
			if token.Data != "a" {
				continue
			}

			for _, attr := range token.Attr {
				if attr.Key == "href" {
					hrefs = append(hrefs, attr.Val)
				}
			}
		}
	}
}
