//go:build js && wasm

package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"syscall/js"

	_ "golang.org/x/image/bmp"

	"github.com/inamate/stamps/internal/asset"
	"github.com/inamate/stamps/internal/document"
	"github.com/inamate/stamps/internal/engine"
	"github.com/inamate/stamps/internal/store"
)

var (
	eng   *engine.Engine
	saved *store.MemoryStore
)

// loadOptions is the JSON accepted by load. Images are base64 encoded
// PNG, JPEG or BMP files.
type loadOptions struct {
	Width    uint32 `json:"width"`
	Height   uint32 `json:"height"`
	Document string `json:"document,omitempty"` // SVG text; blank when empty
	Cursor   string `json:"cursor"`
	Mask     string `json:"mask"`
	Stamps   []struct {
		Name string `json:"name"`
		Data string `json:"data"`
	} `json:"stamps"`
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	// Create the engine API object
	stampsEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → backend) ---
	stampsEngine.Set("load", js.FuncOf(load))
	stampsEngine.Set("step", js.FuncOf(step))
	stampsEngine.Set("addStamp", js.FuncOf(addStamp))

	// --- Queries (frontend ← backend) ---
	stampsEngine.Set("getFrame", js.FuncOf(getFrame))
	stampsEngine.Set("getDocument", js.FuncOf(getDocument))
	stampsEngine.Set("getSavedDocument", js.FuncOf(getSavedDocument))
	stampsEngine.Set("getTexture", js.FuncOf(getTexture))

	// Register on global scope
	js.Global().Set("stampsEngine", stampsEngine)

	// Signal that WASM is ready
	js.Global().Set("stampsWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func errorValue(err error) js.Value {
	return js.ValueOf(map[string]interface{}{"error": err.Error()})
}

func decodeImage(name, data string) (*image.RGBA, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return asset.ToRGBA(img), nil
}

// --- Command Handlers ---

func load(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing options JSON"})
	}

	var opts loadOptions
	if err := json.Unmarshal([]byte(args[0].String()), &opts); err != nil {
		return errorValue(fmt.Errorf("parse options: %w", err))
	}

	lib := &asset.Library{}
	var err error
	if lib.Cursor, err = decodeImage(asset.CursorFile, opts.Cursor); err != nil {
		return errorValue(err)
	}
	if lib.Mask, err = decodeImage(asset.MaskFile, opts.Mask); err != nil {
		return errorValue(err)
	}
	for _, s := range opts.Stamps {
		if err := asset.ValidName(s.Name); err != nil {
			return errorValue(err)
		}
		img, err := decodeImage(s.Name, s.Data)
		if err != nil {
			return errorValue(err)
		}
		if !lib.Insert(asset.Image{Name: s.Name, Image: img}) {
			slog.Warn("duplicate stamp replaced", "name", s.Name)
		}
	}

	svg := document.NewEmptyDocument(opts.Width, opts.Height)
	if opts.Document != "" {
		if svg, err = document.Parse([]byte(opts.Document)); err != nil {
			return errorValue(err)
		}
	}

	saved = &store.MemoryStore{}
	eng = engine.New(lib, svg, saved, opts.Width, opts.Height)
	return js.ValueOf(map[string]interface{}{"ok": true, "stamps": len(lib.Stamps)})
}

func step(this js.Value, args []js.Value) interface{} {
	if eng == nil || len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "engine not loaded or missing input JSON"})
	}

	var msg engine.InputMessage
	if err := json.Unmarshal([]byte(args[0].String()), &msg); err != nil {
		return errorValue(fmt.Errorf("parse input: %w", err))
	}
	in, err := msg.Input()
	if err != nil {
		return errorValue(err)
	}

	f, fx, err := eng.Step(context.Background(), in)
	if err != nil {
		return errorValue(err)
	}
	data, err := json.Marshal(struct {
		Frame   engine.Frame          `json:"frame"`
		Effects engine.EffectsMessage `json:"effects"`
	}{f, fx.Message()})
	if err != nil {
		return errorValue(err)
	}
	return js.ValueOf(string(data))
}

func addStamp(this js.Value, args []js.Value) interface{} {
	if eng == nil || len(args) < 2 {
		return js.ValueOf(map[string]interface{}{"error": "engine not loaded or missing name and data"})
	}
	name := args[0].String()
	if err := asset.ValidName(name); err != nil {
		return errorValue(err)
	}
	img, err := decodeImage(name, args[1].String())
	if err != nil {
		return errorValue(err)
	}
	eng.AddStamp(asset.Image{Name: name, Image: img})
	return js.ValueOf(map[string]interface{}{"ok": true})
}

// --- Query Handlers ---

func getFrame(this js.Value, args []js.Value) interface{} {
	if eng == nil {
		return js.ValueOf("")
	}
	data, err := engine.FrameToJSON(eng.Frame())
	if err != nil {
		return errorValue(err)
	}
	return js.ValueOf(data)
}

func getDocument(this js.Value, args []js.Value) interface{} {
	if eng == nil {
		return js.ValueOf("")
	}
	data, err := document.Marshal(eng.Document())
	if err != nil {
		return errorValue(err)
	}
	return js.ValueOf(string(data))
}

// getSavedDocument returns the SVG text of the last save, empty before
// the first one.
func getSavedDocument(this js.Value, args []js.Value) interface{} {
	if saved == nil {
		return js.ValueOf("")
	}
	return js.ValueOf(string(saved.Bytes()))
}

// getTexture returns {width, height, pixels} with pixels as premultiplied
// RGBA bytes.
func getTexture(this js.Value, args []js.Value) interface{} {
	if eng == nil || len(args) < 1 {
		return js.Null()
	}
	key := document.Href{URL: args[0].String()}
	if len(args) > 1 && args[1].Type() == js.TypeString {
		key.Clip = args[1].String()
	}

	img, ok := eng.Texture(key)
	if !ok {
		return js.Null()
	}
	b := img.Bounds()
	pix := make([]byte, 0, 4*b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(b.Min.X, y)
		pix = append(pix, img.Pix[off:off+4*b.Dx()]...)
	}
	arr := js.Global().Get("Uint8Array").New(len(pix))
	js.CopyBytesToJS(arr, pix)

	out := js.Global().Get("Object").New()
	out.Set("width", b.Dx())
	out.Set("height", b.Dy())
	out.Set("pixels", arr)
	return out
}
