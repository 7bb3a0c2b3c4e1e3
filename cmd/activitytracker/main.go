// Command activitytracker はエージェントの稼働状況を記録・集計するAPIサーバー。
//
// 使い方:
//
//	activitytracker [serve|migrate|seed|healthcheck]
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/activitytracker/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "activitytracker: %v\n", err)
		os.Exit(1)
	}
}
