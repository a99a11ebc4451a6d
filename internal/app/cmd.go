package app

import (
	"errors"
	"fmt"
	"strconv"
)

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
	// CommandClient はバックエンドに対してクライアントの起動シーケンスを実行する。
	CommandClient Command = "client"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch args[0] {
	case "serve":
		return CommandServe
	case "migrate":
		return CommandMigrate
	case "healthcheck":
		return CommandHealthcheck
	case "client":
		return CommandClient
	default:
		return CommandServe
	}
}

// MigrateAction は migrate サブコマンドの動作を表す。
type MigrateAction struct {
	Name    string // "up" / "status" / "force"
	Version int    // force の場合のみ
}

// ParseMigrateArgs は `migrate` 以降の引数を解析する。引数なしはupとして扱う。
func ParseMigrateArgs(args []string) (MigrateAction, error) {
	if len(args) == 0 {
		return MigrateAction{Name: "up"}, nil
	}

	switch args[0] {
	case "up", "status":
		if len(args) > 1 {
			return MigrateAction{}, fmt.Errorf("migrate %s takes no arguments", args[0])
		}
		return MigrateAction{Name: args[0]}, nil
	case "force":
		if len(args) != 2 {
			return MigrateAction{}, errors.New("usage: migrate force <version>")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil || v < 0 {
			return MigrateAction{}, fmt.Errorf("invalid migration version %q", args[1])
		}
		return MigrateAction{Name: "force", Version: v}, nil
	default:
		return MigrateAction{}, fmt.Errorf("unknown migrate action %q", args[0])
	}
}
