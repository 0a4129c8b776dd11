package mssql

import "github.com/zoobzio/relq/internal/types"

// Placeholders returns the distinct @name parameters referenced by sql, in
// order of first appearance. String literals, quoted identifiers, comments
// and @@ system functions are skipped. Names compare case-insensitively and
// keep the spelling of their first occurrence.
func Placeholders(sql string) []string {
	var names []string
	seen := make(map[string]bool)

	for i := 0; i < len(sql); i++ {
		switch c := sql[i]; {
		case c == '\'':
			i = skipQuoted(sql, i, '\'')
		case c == '"':
			i = skipQuoted(sql, i, '"')
		case c == '[':
			i = skipQuoted(sql, i, ']')
		case c == '-' && i+1 < len(sql) && sql[i+1] == '-':
			for i < len(sql) && sql[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(sql) && sql[i+1] == '*':
			end := i + 2
			for end+1 < len(sql) && (sql[end] != '*' || sql[end+1] != '/') {
				end++
			}
			i = end + 1
		case c == '@':
			if i+1 < len(sql) && sql[i+1] == '@' {
				i++
				for i+1 < len(sql) && isNameByte(sql[i+1]) {
					i++
				}
				continue
			}
			start := i + 1
			end := start
			for end < len(sql) && isNameByte(sql[end]) {
				end++
			}
			if end > start {
				name := sql[start:end]
				key := types.ParamKey(name)
				if !seen[key] {
					seen[key] = true
					names = append(names, name)
				}
			}
			i = end - 1
		}
	}
	return names
}

// skipQuoted returns the index of the closing delimiter of a quoted run that
// starts at open. A doubled delimiter is an escape.
func skipQuoted(sql string, open int, closing byte) int {
	for i := open + 1; i < len(sql); i++ {
		if sql[i] != closing {
			continue
		}
		if i+1 < len(sql) && sql[i+1] == closing {
			i++
			continue
		}
		return i
	}
	return len(sql)
}

func isNameByte(b byte) bool {
	return b == '_' || b == '#' || b == '$' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
