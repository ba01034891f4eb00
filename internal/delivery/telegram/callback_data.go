package telegram

import (
	"errors"
	"strconv"
	"strings"

	"github.com/aliskhannn/millionaire-bot/internal/domain/entities"
)

// Callback action constants.
const (
	actionGame    = "game"
	actionNew     = "new"
	actionHistory = "history"
)

// Game sub-actions.
const (
	gameAnswer = "answer"
	gameHelp   = "help"
	gameCash   = "cash"
	gameShow   = "show"
)

var errBadCallback = errors.New("malformed callback data")

// callbackData represents structured callback data.
type callbackData struct {
	Action string
	Params []string
	Raw    string
}

// encode creates callback string.
func (cd callbackData) encode() string {
	if len(cd.Params) == 0 {
		return cd.Action
	}
	return cd.Action + ":" + strings.Join(cd.Params, ":")
}

// decodeCallback parses callback data string.
func decodeCallback(data string) callbackData {
	parts := strings.Split(data, ":")
	return callbackData{
		Action: parts[0],
		Params: parts[1:],
		Raw:    data,
	}
}

// gameAction is a decoded "game:<id>:<sub>[:<arg>]" callback.
type gameAction struct {
	GameID int64
	Sub    string
	Key    entities.DisplayKey
	Help   entities.HelpType
}

func (cd callbackData) gameAction() (gameAction, error) {
	if cd.Action != actionGame || len(cd.Params) < 2 {
		return gameAction{}, errBadCallback
	}

	id, err := strconv.ParseInt(cd.Params[0], 10, 64)
	if err != nil || id <= 0 {
		return gameAction{}, errBadCallback
	}

	a := gameAction{GameID: id, Sub: cd.Params[1]}
	switch a.Sub {
	case gameAnswer:
		if len(cd.Params) != 3 {
			return gameAction{}, errBadCallback
		}
		if a.Key, err = entities.ParseDisplayKey(cd.Params[2]); err != nil {
			return gameAction{}, err
		}
	case gameHelp:
		if len(cd.Params) != 3 {
			return gameAction{}, errBadCallback
		}
		if a.Help, err = entities.ParseHelpType(cd.Params[2]); err != nil {
			return gameAction{}, err
		}
	case gameCash, gameShow:
		if len(cd.Params) != 2 {
			return gameAction{}, errBadCallback
		}
	default:
		return gameAction{}, errBadCallback
	}

	return a, nil
}

func gameParams(gameID int64, sub string, arg ...string) []string {
	return append([]string{strconv.FormatInt(gameID, 10), sub}, arg...)
}

// buildAnswerCallback builds callback data for answering the current question.
func buildAnswerCallback(gameID int64, key entities.DisplayKey) string {
	return callbackData{Action: actionGame, Params: gameParams(gameID, gameAnswer, string(key))}.encode()
}

// buildHelpCallback builds callback data for applying a help.
func buildHelpCallback(gameID int64, t entities.HelpType) string {
	return callbackData{Action: actionGame, Params: gameParams(gameID, gameHelp, string(t))}.encode()
}

func buildCashOutCallback(gameID int64) string {
	return callbackData{Action: actionGame, Params: gameParams(gameID, gameCash)}.encode()
}

func buildShowGameCallback(gameID int64) string {
	return callbackData{Action: actionGame, Params: gameParams(gameID, gameShow)}.encode()
}

func buildNewGameCallback() string {
	return actionNew
}

func buildHistoryCallback() string {
	return actionHistory
}
