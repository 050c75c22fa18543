// Package rules provides the embedded built-in category rule files.
package rules

import "embed"

//go:embed *.yaml
var RulesFS embed.FS
