package discord

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hunterjsb/fftournament/internal/interaction"
)

// Component custom ids look like "fft:<action>:<session id>[:<page>]".
const customIDPrefix = "fft"

const (
	actionSelect   = "select"
	actionPage     = "page"
	actionGenerate = "generate"
	actionRedraw   = "redraw"
	actionConfirm  = "confirm"
	actionUpdate   = "update"
)

var actionEvents = map[string]interaction.EventKind{
	actionSelect:   interaction.EventSelect,
	actionPage:     interaction.EventNavigate,
	actionGenerate: interaction.EventGenerate,
	actionRedraw:   interaction.EventRedraw,
	actionConfirm:  interaction.EventConfirm,
	actionUpdate:   interaction.EventUpdateResults,
}

func customID(action, sessionID string) string {
	return customIDPrefix + ":" + action + ":" + sessionID
}

func pageCustomID(sessionID string, page int) string {
	return customID(actionPage, sessionID) + ":" + strconv.Itoa(page)
}

// componentTarget is a decoded custom id.
type componentTarget struct {
	Kind      interaction.EventKind
	SessionID string
	Page      int
}

// parseCustomID decodes a custom id. ok is false for ids this bot did not issue.
func parseCustomID(id string) (componentTarget, bool, error) {
	prefix, rest, found := strings.Cut(id, ":")
	if !found || prefix != customIDPrefix {
		return componentTarget{}, false, nil
	}
	action, rest, found := strings.Cut(rest, ":")
	if !found {
		return componentTarget{}, true, fmt.Errorf("custom id %q has no session", id)
	}
	kind, known := actionEvents[action]
	if !known {
		return componentTarget{}, true, fmt.Errorf("custom id %q has unknown action %q", id, action)
	}

	t := componentTarget{Kind: kind}
	if kind == interaction.EventNavigate {
		sessionID, page, found := strings.Cut(rest, ":")
		if !found {
			return componentTarget{}, true, fmt.Errorf("custom id %q has no page", id)
		}
		n, err := strconv.Atoi(page)
		if err != nil {
			return componentTarget{}, true, fmt.Errorf("custom id %q: page: %w", id, err)
		}
		t.SessionID, t.Page = sessionID, n
	} else {
		t.SessionID = rest
	}
	if t.SessionID == "" {
		return componentTarget{}, true, fmt.Errorf("custom id %q has no session", id)
	}
	return t, true, nil
}
