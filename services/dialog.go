package services

import (
	"errors"
	"fmt"
)

// DialogMode is which article dialog, if any, is open.
type DialogMode string

const (
	DialogIdle      DialogMode = "idle"
	DialogViewing   DialogMode = "viewing"
	DialogCreating  DialogMode = "creating"
	DialogEditing   DialogMode = "editing"
	DialogDeleting  DialogMode = "deleting"
	DialogReviewing DialogMode = "reviewing"
)

var ErrDialogTransition = errors.New("invalid dialog transition")

// DialogState is the single open dialog of a browse session and the article it
// targets. At most one dialog is open at a time.
type DialogState struct {
	Mode      DialogMode `json:"mode"`
	ArticleID string     `json:"article_id,omitempty"`
	// Error is the message of the last failed action; the dialog stays open.
	Error string `json:"error,omitempty"`
}

// Idle is the state with no dialog open.
func Idle() DialogState {
	return DialogState{Mode: DialogIdle}
}

// Open moves to mode for articleID. From idle any dialog may open; from viewing the
// reader may switch to editing, deleting or reviewing the same article. Creating
// takes no article; every other mode needs one.
func (d DialogState) Open(mode DialogMode, articleID string) (DialogState, error) {
	switch mode {
	case DialogCreating:
		if articleID != "" {
			return d, fmt.Errorf("%w: creating takes no article", ErrDialogTransition)
		}
	case DialogViewing, DialogEditing, DialogDeleting, DialogReviewing:
		if articleID == "" {
			return d, fmt.Errorf("%w: %s needs an article", ErrDialogTransition, mode)
		}
	default:
		return d, fmt.Errorf("%w: cannot open %q", ErrDialogTransition, mode)
	}

	switch {
	case d.Mode == DialogIdle || d.Mode == "":
	case d.Mode == DialogViewing && mode != DialogCreating && mode != DialogViewing && articleID == d.ArticleID:
	default:
		return d, fmt.Errorf("%w: %s is open, cannot open %s", ErrDialogTransition, d.Mode, mode)
	}
	return DialogState{Mode: mode, ArticleID: articleID}, nil
}

// Close returns to idle.
func (d DialogState) Close() DialogState {
	return Idle()
}

// Fail records err and keeps the dialog open.
func (d DialogState) Fail(err error) DialogState {
	d.Error = err.Error()
	return d
}

// IsOpen reports whether any dialog is open.
func (d DialogState) IsOpen() bool {
	return d.Mode != DialogIdle && d.Mode != ""
}
