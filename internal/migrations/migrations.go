// Package migrations は goose 用の SQL マイグレーションを埋め込みます。
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
