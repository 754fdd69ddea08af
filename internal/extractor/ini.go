// SPDX-License-Identifier: MPL-2.0

package extractor

import (
	"bufio"
	"strings"
)

// iniFile is a parsed INI document: section → key → value. Keys are
// lowercased; section names are kept verbatim.
type iniFile map[string]map[string]string

// parseINI reads setup.cfg and git config style files. When continuation is
// true, indented lines extend the previous value (setup.cfg); otherwise
// every line is independent (git config indents its keys).
func parseINI(text string, continuation bool) iniFile {
	doc := iniFile{}
	section, key := "", ""
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		raw := sc.Text()
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.TrimSpace(line[1 : len(line)-1])
			if doc[section] == nil {
				doc[section] = map[string]string{}
			}
			key = ""
			continue
		}
		indented := raw != strings.TrimLeft(raw, " \t")
		if continuation && indented && key != "" {
			prev := doc[section][key]
			if prev != "" {
				prev += "\n"
			}
			doc[section][key] = prev + line
			continue
		}
		k, v, ok := cutKey(line)
		if !ok {
			continue
		}
		if doc[section] == nil {
			doc[section] = map[string]string{}
		}
		key = strings.ToLower(k)
		doc[section][key] = v
	}
	return doc
}

func cutKey(line string) (string, string, bool) {
	i := strings.IndexAny(line, "=:")
	if i <= 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:]), true
}

// get returns a value, or "".
func (d iniFile) get(section, key string) string {
	return d[section][key]
}

// list splits a multi-line or comma-separated value into trimmed items.
func (d iniFile) list(section, key string) []string {
	v := d.get(section, key)
	if v == "" {
		return nil
	}
	sep := "\n"
	if !strings.Contains(v, "\n") {
		sep = ","
	}
	var out []string
	for _, item := range strings.Split(v, sep) {
		if item = strings.TrimSpace(item); item != "" && !strings.HasPrefix(item, "#") {
			out = append(out, item)
		}
	}
	return out
}
