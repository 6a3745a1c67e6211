package ui

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Widget is the common surface of everything a Panel manages.
type Widget interface {
	Update()
	Draw(screen *ebiten.Image)
	Height() float64
	SetY(y float64)
}

// sliderItem adapts Slider to Widget and draws its numeric value.
type sliderItem struct{ *Slider }

func (s sliderItem) Height() float64 { return s.H + 25 }
func (s sliderItem) SetY(y float64)  { s.Y = y }

// checkboxItem adapts Checkbox to Widget.
type checkboxItem struct{ *Checkbox }

func (c checkboxItem) Height() float64 { return c.Size + 5 }
func (c checkboxItem) SetY(y float64)  { c.Y = y }

// buttonItem adapts Button to Widget.
type buttonItem struct{ *Button }

func (b buttonItem) Height() float64 { return b.Button.Height + 8 }
func (b buttonItem) SetY(y float64)  { b.Y = y }

type section struct {
	title string
	start int // first widget index in this section
	end   int // one past the last widget index
}

// Panel is a scrollable column of labeled widgets grouped into sections.
type Panel struct {
	X, Y          float64
	Width, Height float64
	Title         string

	widgets      []Widget
	labels       []string
	sections     []section
	scrollOffset float64

	BGColor     color.RGBA
	BorderColor color.RGBA
}

// NewPanel creates an empty panel at the given screen rectangle.
func NewPanel(x, y, width, height float64, title string) *Panel {
	return &Panel{
		X:           x,
		Y:           y,
		Width:       width,
		Height:      height,
		Title:       title,
		BGColor:     color.RGBA{R: 40, G: 40, B: 45, A: 230},
		BorderColor: color.RGBA{R: 100, G: 100, B: 110, A: 255},
	}
}

// AddSection starts a new section header; widgets added afterwards belong to
// it until EndSection.
func (p *Panel) AddSection(title string) {
	p.sections = append(p.sections, section{title: title, start: len(p.widgets)})
}

// EndSection closes the current section.
func (p *Panel) EndSection() {
	if len(p.sections) > 0 {
		p.sections[len(p.sections)-1].end = len(p.widgets)
	}
}

// AddSlider appends a labeled slider and returns it for later reads.
func (p *Panel) AddSlider(label string, min, max, value float64) *Slider {
	s := NewSlider(p.X+10, 0, p.Width-20, label, min, max, value)
	p.widgets = append(p.widgets, sliderItem{s})
	p.labels = append(p.labels, label)
	return s
}

// AddCheckbox appends a labeled checkbox and returns it for later reads.
func (p *Panel) AddCheckbox(label string, value bool) *Checkbox {
	c := NewCheckbox(p.X+10, 0, label, value)
	p.widgets = append(p.widgets, checkboxItem{c})
	p.labels = append(p.labels, label)
	return c
}

// AddButton appends a button wired to onClick.
func (p *Panel) AddButton(label string, onClick func()) *Button {
	b := NewButton(p.X+10, 0, p.Width-20, 22, label, onClick)
	p.widgets = append(p.widgets, buttonItem{b})
	p.labels = append(p.labels, "")
	return b
}

// Contains reports whether the screen point is inside the panel rectangle.
// The game layer uses it to keep panel clicks from acting as pointer input.
func (p *Panel) Contains(x, y float64) bool {
	return x >= p.X && x <= p.X+p.Width && y >= p.Y && y <= p.Y+p.Height
}

// walk lays the column out from the current scroll offset, invoking sectionFn
// for each header and widgetFn for each widget row with its scrolled y
// position. Callbacks may be nil.
func (p *Panel) walk(sectionFn func(s section, y float64), widgetFn func(i int, w Widget, y float64)) {
	currentY := p.Y + 30 - p.scrollOffset
	for _, sec := range p.sections {
		if sectionFn != nil {
			sectionFn(sec, currentY)
		}
		currentY += 25

		for i := sec.start; i < sec.end; i++ {
			if widgetFn != nil {
				widgetFn(i, p.widgets[i], currentY)
			}
			currentY += p.widgets[i].Height()
		}
	}
}

// inView reports whether a row at y is inside the drawn band of the panel.
func (p *Panel) inView(y float64) bool {
	return y >= p.Y-30 && y <= p.Y+p.Height
}

// Update handles scrolling and forwards input to the visible widgets.
func (p *Panel) Update() {
	_, dy := ebiten.Wheel()
	if dy != 0 {
		mx, my := ebiten.CursorPosition()
		if p.Contains(float64(mx), float64(my)) {
			p.scrollOffset -= dy * 20
			maxScroll := p.contentHeight() - p.Height + 40
			if maxScroll < 0 {
				maxScroll = 0
			}
			p.scrollOffset = min(max(p.scrollOffset, 0), maxScroll)
		}
	}

	p.updateWidgets()
}

// updateWidgets runs the input pass over the laid-out column. Widgets outside
// the visible band are skipped entirely: they are repositioned only when
// drawn, so letting them see input would have them react at a stale position.
func (p *Panel) updateWidgets() {
	p.walk(nil, func(i int, w Widget, y float64) {
		if !p.inView(y) {
			return
		}
		w.SetY(y + 15)
		w.Update()
	})
}

// Draw renders the panel frame, section headers and visible widgets.
func (p *Panel) Draw(screen *ebiten.Image) {
	vector.FillRect(screen,
		float32(p.X), float32(p.Y),
		float32(p.Width), float32(p.Height),
		p.BGColor, true)
	vector.StrokeRect(screen,
		float32(p.X), float32(p.Y),
		float32(p.Width), float32(p.Height),
		2, p.BorderColor, true)

	ebitenutil.DebugPrintAt(screen, p.Title, int(p.X+10), int(p.Y+5))

	p.walk(func(sec section, y float64) {
		if y < p.Y-25 || y > p.Y+p.Height {
			return
		}
		vector.FillRect(screen,
			float32(p.X+5), float32(y),
			float32(p.Width-10), 20,
			color.RGBA{R: 60, G: 60, B: 70, A: 255}, true)
		ebitenutil.DebugPrintAt(screen, sec.title, int(p.X+10), int(y+5))
	}, func(i int, w Widget, y float64) {
		if !p.inView(y) {
			return
		}
		if label := p.labels[i]; label != "" {
			text := label
			if s, ok := w.(sliderItem); ok {
				text = fmt.Sprintf("%s: %.4g", label, s.Value)
			}
			ebitenutil.DebugPrintAt(screen, text, int(p.X+10), int(y))
		}
		w.SetY(y + 15)
		w.Draw(screen)
	})
}

func (p *Panel) contentHeight() float64 {
	h := 30.0 + float64(len(p.sections))*25
	for _, w := range p.widgets {
		h += w.Height()
	}
	return h
}
