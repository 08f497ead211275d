package main

import (
	"log/slog"
	"os"
	"time"

	"gitlab.com/greyxor/slogor"

	"github.com/frank2889/MacWinControl/cmd/macwincontrol"
)

func main() {
	slog.SetDefault(slog.New(
		slogor.NewHandler(os.Stderr,
			slogor.SetLevel(slog.LevelInfo),
			slogor.SetTimeFormat(time.DateTime))),
	)
	macwincontrol.Execute()
}
