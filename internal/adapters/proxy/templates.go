// SPDX-FileCopyrightText: 2025 The Clawdhost Authors
// SPDX-License-Identifier: EUPL-1.2

package proxy

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/janderssonse/clawdhost/internal/domain"
)

var caddyTemplate = template.Must(template.New("Caddyfile").Parse(`{{ .Domain }} {
    reverse_proxy {{ .Upstream }}
}
`))

var nginxTemplate = template.Must(template.New("clawdbot.conf").Parse(`server {
    listen 80;
    listen [::]:80;
    server_name {{ .Domain }};

    location / {
        proxy_pass http://{{ .Upstream }};
        proxy_http_version 1.1;

        proxy_set_header Upgrade $http_upgrade;
        proxy_set_header Connection "upgrade";
        proxy_set_header Host $host;
        proxy_set_header X-Real-IP $remote_addr;
        proxy_set_header X-Forwarded-For $proxy_add_x_forwarded_for;
        proxy_set_header X-Forwarded-Proto $scheme;

        proxy_read_timeout 86400s;
        proxy_send_timeout 86400s;
    }
}
`))

type siteData struct {
	Domain   string
	Upstream string
}

func render(tmpl *template.Template, domainName string) (string, error) {
	var buf bytes.Buffer

	if err := tmpl.Execute(&buf, siteData{Domain: domainName, Upstream: domain.GatewayUpstream}); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", tmpl.Name(), err)
	}

	return buf.String(), nil
}
