package main

import (
	"image"
	"image/draw"
	"os"

	"github.com/charmbracelet/log"
	"golang.org/x/image/colornames"

	"waywin/input"
	"waywin/window"
)

func main() {
	log.SetReportTimestamp(false)
	if level, err := log.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(level)
	}

	w, err := window.New(window.Config{})
	if err != nil {
		log.Fatal("create window", "err", err)
	}
	defer w.Destroy()

	if kb := w.Keyboard(); kb != nil {
		kb.OnKey = func(ev input.Event) {
			if ev.Pressed {
				log.Info("key pressed", "sym", ev.Sym)
			}
		}
	}

	fill := image.NewUniform(colornames.Magenta)
	err = w.Run(func(img draw.Image) {
		draw.Draw(img, img.Bounds(), fill, image.Point{}, draw.Src)
	})
	if err != nil {
		log.Fatal("window loop", "err", err)
	}
}
