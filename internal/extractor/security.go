// SPDX-License-Identifier: MPL-2.0

package extractor

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/autodoc/autodoc/internal/discovery"
	"github.com/autodoc/autodoc/pkg/metadata"
)

// securityPackages lists, per manifest, dependency names whose presence
// makes a project security-relevant (cryptography, authentication, TLS).
var securityPackages = map[string][]string{
	"python": {
		"cryptography", "pycryptodome", "pycryptodomex", "pyopenssl", "bcrypt", "passlib", "pyjwt",
		"python-jose", "authlib", "oauthlib", "paramiko", "pynacl", "argon2-cffi", "keyring",
	},
	"javascript": {
		"jsonwebtoken", "bcrypt", "bcryptjs", "passport", "helmet", "crypto-js", "node-forge", "jose",
		"argon2", "openid-client", "@auth/core", "next-auth",
	},
	"go": {
		"golang.org/x/crypto", "github.com/golang-jwt/jwt", "golang.org/x/oauth2", "filippo.io/age",
		"github.com/coreos/go-oidc", "github.com/lestrrat-go/jwx",
	},
	"rust": {
		"ring", "rustls", "openssl", "sha2", "aes-gcm", "jsonwebtoken", "argon2", "ed25519-dalek",
		"chacha20poly1305", "x509-parser",
	},
	"java": {
		"spring-security-core", "spring-boot-starter-security", "bcprov-jdk18on", "bcprov-jdk15on",
		"jjwt", "jjwt-api", "nimbus-jose-jwt", "shiro-core", "keycloak-core",
	},
	"cpp": {
		"OpenSSL", "libsodium", "sodium", "mbedtls", "wolfssl", "botan",
	},
}

// securityPatterns holds one whole-token matcher per package, compiled once.
var securityPatterns = sync.OnceValue(func() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp)
	for _, pkgs := range securityPackages {
		for _, pkg := range pkgs {
			out[pkg] = regexp.MustCompile(`(?i)(^|[^A-Za-z0-9_.\-/@])` + regexp.QuoteMeta(pkg) + `($|[^A-Za-z0-9_\-])`)
		}
	}
	return out
})

// securityManifests maps manifest file names to securityPackages keys.
var securityManifests = map[string]string{
	"pyproject.toml":   "python",
	"setup.py":         "python",
	"setup.cfg":        "python",
	"Pipfile":          "python",
	"package.json":     "javascript",
	"go.mod":           "go",
	"Cargo.toml":       "rust",
	"pom.xml":          "java",
	"build.gradle":     "java",
	"build.gradle.kts": "java",
	"CMakeLists.txt":   "cpp",
	"meson.build":      "cpp",
}

// Security proposes the security-relevance flag from dependency manifests
// and a published security policy.
type Security struct{}

// Name implements Extractor.
func (Security) Name() string { return NameSecurity }

// Interested implements Extractor.
func (Security) Interested(f discovery.FileRecord) bool {
	if _, ok := securityManifests[f.Name()]; ok {
		return true
	}
	if isRequirementsFile(f.Name()) {
		return true
	}
	return f.Category() == discovery.CategoryDocs && strings.HasPrefix(strings.ToUpper(f.Name()), "SECURITY")
}

// Extract implements Extractor.
func (s Security) Extract(ctx context.Context, res *discovery.Result) Output {
	c := newCollector(NameSecurity)
	var scanned []discovery.FileRecord
	asserted := false
	for _, f := range res.Select(s.Interested) {
		if ctx.Err() != nil {
			break
		}
		if f.Category() == discovery.CategoryDocs {
			c.add(metadata.FlagCandidate(true, metadata.Weak, f.Path(), "project publishes a security policy"))
			continue
		}
		ecosystem := securityManifests[f.Name()]
		if ecosystem == "" {
			ecosystem = "python"
		}
		text, ok := c.read(f)
		if !ok {
			continue
		}
		scanned = append(scanned, f)
		if pkg, ok := mentionsPackage(text, securityPackages[ecosystem]); ok {
			asserted = true
			c.add(metadata.FlagCandidate(true, metadata.Reasonable, f.Path(), "depends on "+pkg))
		}
	}
	if !asserted {
		if f, ok := shallowest(scanned); ok {
			c.add(metadata.FlagCandidate(false, metadata.Weak, f.Path(),
				"no cryptography or authentication dependency declared"))
		}
	}
	return c.output()
}

// mentionsPackage reports the first package named as a whole token in text.
func mentionsPackage(text string, packages []string) (string, bool) {
	patterns := securityPatterns()
	for _, pkg := range packages {
		if patterns[pkg].MatchString(text) {
			return pkg, true
		}
	}
	return "", false
}
