// Package duelpresenter renders match views and notices as terminal text.
package duelpresenter

import (
	"strings"

	"github.com/park285/cheese-duel/internal/match"
	"github.com/park285/cheese-duel/pkg/duelview"
)

// Presenter delivers formatted text without coupling to the command layer.
type Presenter struct {
	sendMessage func(message string) error
	formatter   *Formatter
}

func NewPresenter(sendMessage func(message string) error, formatter *Formatter) *Presenter {
	if formatter == nil {
		formatter = NewFormatter()
	}
	return &Presenter{sendMessage: sendMessage, formatter: formatter}
}

func (p *Presenter) Notice(n match.Notice) error {
	return p.Message(n.Text)
}

func (p *Presenter) Message(message string) error {
	if p == nil || p.sendMessage == nil {
		return nil
	}
	if text := strings.TrimSpace(message); text != "" {
		return p.sendMessage(text)
	}
	return nil
}

func (p *Presenter) Board(v duelview.View) error {
	if p == nil {
		return nil
	}
	return p.Message(p.formatter.Full(v))
}

func (p *Presenter) Error(err duelview.DomainError) error {
	return p.Message(err.Error())
}

// Formatter returns the formatter in use.
func (p *Presenter) Formatter() *Formatter {
	if p == nil {
		return nil
	}
	return p.formatter
}
