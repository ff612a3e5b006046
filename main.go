package main

import (
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/eiannone/keyboard"
	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/vorbis"
	"github.com/zacharied/theori/internal/config"
	"github.com/zacharied/theori/internal/convert"
	"github.com/zacharied/theori/internal/ksh"
	"github.com/zacharied/theori/internal/render"
	"github.com/zacharied/theori/internal/score"
	"github.com/zacharied/theori/internal/theme"
)

func main() {
	if err := run(); nil != err {
		log.Fatalln(err)
	}
}

func run() error {
	var mp3File, oggFile, chartFile string
	if err := filepath.Walk(*config.Directory, func(p string, info os.FileInfo, err error) error {
		switch path.Ext(info.Name()) {
		case ".mp3":
			mp3File = p
		case ".ogg":
			oggFile = p
		case ".ksh":
			chartFile = p
		}
		return nil
	}); nil != err {
		return fmt.Errorf("unable to walk song directory: %w", err)
	}

	if (mp3File == "" && oggFile == "") || chartFile == "" {
		return errors.New("unable to find .ksh and .mp3/.ogg file in given directory")
	}

	body, err := os.ReadFile(chartFile)
	if nil != err {
		return err
	}
	src, err := ksh.ParseFile(chartFile)
	if nil != err {
		return fmt.Errorf("unable to parse chart: %w", err)
	}
	c, err := convert.Convert(src)
	if nil != err {
		return fmt.Errorf("unable to convert chart: %w", err)
	}

	store := &score.Store{}
	if err := store.Init(); nil != err {
		return err
	}
	defer store.Deinit()

	keyChannel, err := keyboard.GetKeys(128)
	if nil != err {
		return fmt.Errorf("unable to open keyboard: %w", err)
	}
	defer func() {
		if err := keyboard.Close(); nil != err {
			log.Println("unable to close keyboard", err)
		}
	}()

	audioFile := mp3File
	if oggFile != "" {
		audioFile = oggFile
	}
	log.Printf("Opening %v (%v)\n", audioFile, chartFile)
	f, err := os.Open(audioFile)
	if nil != err {
		return err
	}
	var streamer beep.StreamSeekCloser
	var format beep.Format
	if oggFile != "" {
		streamer, format, err = vorbis.Decode(f)
	} else {
		streamer, format, err = mp3.Decode(f)
	}
	if nil != err {
		return err
	}
	defer streamer.Close()

	speaker.Init(beep.SampleRate(math.Round(float64(format.SampleRate)*(*config.Rate))), format.SampleRate.N(time.Second/60))
	go func() {
		time.Sleep(*config.Delay)
		speaker.Play(streamer)
	}()

	p := &Program{
		Renderer: &render.DefaultRenderer{},
		Theme:    &theme.DefaultTheme{},
		Store:    store,
		Chart:    c,
		Sum:      score.Hash(body),
	}
	return p.Run(keyChannel)
}
