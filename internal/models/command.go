package models

import (
	"fmt"
	"strconv"
	"strings"
)

// CommandKind discriminates the structured wizard commands
type CommandKind string

const (
	CmdChatSelected CommandKind = "CHAT_SELECTED"
	CmdSetupNew     CommandKind = "SETUP_NEW"
	CmdSetupUpdate  CommandKind = "SETUP_UPDATE"
	CmdDateAdjust   CommandKind = "DATE_ADJUST"
	CmdDateConfirm  CommandKind = "DATE_CONFIRM"
	CmdFeeAdjust    CommandKind = "FEE_ADJUST"
	CmdFeeConfirm   CommandKind = "FEE_CONFIRM"
	CmdCancel       CommandKind = "CANCEL"
)

// DateField selects which boundary a date command adjusts
type DateField string

const (
	DateStart DateField = "start"
	DateEnd   DateField = "end"
)

// Command is a validated wizard input. The delimited string form exists
// only at the transport edge; everything past ParseCallback works with this
// typed value.
type Command struct {
	Kind      CommandKind
	Field     DateField // DATE_ADJUST / DATE_CONFIRM only
	DeltaMins int       // DATE_ADJUST only, minutes
	FeeDelta  int64     // FEE_ADJUST only, minor units
	ChatID    int64     // CHAT_SELECTED only
	ChatTitle string    // CHAT_SELECTED only
}

// The fixed adjustment steps offered by the keyboards. Anything else on the
// wire is rejected at the boundary.
var (
	dateDeltaMins = map[int]bool{
		15: true, -15: true,
		30: true, -30: true,
		60: true, -60: true,
		360: true, -360: true,
		720: true, -720: true,
		1440: true, -1440: true,
	}
	feeDeltas = map[int64]bool{50: true, -50: true, 100: true, -100: true}
)

// ParseCallback decodes a transport callback payload such as
// "raffle:date:start:update:+60" into a Command. Unknown or malformed
// payloads return an error; the wizard maps that to its Error terminal.
func ParseCallback(data string) (Command, error) {
	parts := strings.Split(data, ":")
	if len(parts) < 2 || parts[0] != "raffle" {
		return Command{}, fmt.Errorf("unrecognized callback %q", data)
	}

	switch parts[1] {
	case "cancel":
		return Command{Kind: CmdCancel}, nil

	case "chat_selected":
		if len(parts) != 4 {
			return Command{}, fmt.Errorf("malformed chat selection %q", data)
		}
		chatID, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return Command{}, fmt.Errorf("malformed chat id in %q", data)
		}
		return Command{Kind: CmdChatSelected, ChatID: chatID, ChatTitle: parts[3]}, nil

	case "setup":
		if len(parts) != 3 {
			return Command{}, fmt.Errorf("malformed setup callback %q", data)
		}
		switch parts[2] {
		case "new":
			return Command{Kind: CmdSetupNew}, nil
		case "old":
			return Command{Kind: CmdSetupUpdate}, nil
		}
		return Command{}, fmt.Errorf("unknown setup mode %q", parts[2])

	case "date":
		if len(parts) < 4 {
			return Command{}, fmt.Errorf("malformed date callback %q", data)
		}
		field := DateField(parts[2])
		if field != DateStart && field != DateEnd {
			return Command{}, fmt.Errorf("unknown date field %q", parts[2])
		}
		switch parts[3] {
		case "confirmed":
			return Command{Kind: CmdDateConfirm, Field: field}, nil
		case "update":
			if len(parts) != 5 {
				return Command{}, fmt.Errorf("malformed date update %q", data)
			}
			mins, err := strconv.Atoi(strings.TrimPrefix(parts[4], "+"))
			if err != nil || !dateDeltaMins[mins] {
				return Command{}, fmt.Errorf("unsupported date delta %q", parts[4])
			}
			return Command{Kind: CmdDateAdjust, Field: field, DeltaMins: mins}, nil
		}
		return Command{}, fmt.Errorf("unknown date action %q", parts[3])

	case "fee":
		if len(parts) < 3 {
			return Command{}, fmt.Errorf("malformed fee callback %q", data)
		}
		switch parts[2] {
		case "confirmed":
			return Command{Kind: CmdFeeConfirm}, nil
		case "update":
			if len(parts) != 4 {
				return Command{}, fmt.Errorf("malformed fee update %q", data)
			}
			delta, err := strconv.ParseInt(strings.TrimPrefix(parts[3], "+"), 10, 64)
			if err != nil || !feeDeltas[delta] {
				return Command{}, fmt.Errorf("unsupported fee delta %q", parts[3])
			}
			return Command{Kind: CmdFeeAdjust, FeeDelta: delta}, nil
		}
		return Command{}, fmt.Errorf("unknown fee action %q", parts[2])
	}

	return Command{}, fmt.Errorf("unrecognized callback %q", data)
}

// Encode renders the stable wire form of a command, used when building
// keyboards for the transport layer
func (c Command) Encode() string {
	switch c.Kind {
	case CmdCancel:
		return "raffle:cancel"
	case CmdChatSelected:
		return fmt.Sprintf("raffle:chat_selected:%d:%s", c.ChatID, c.ChatTitle)
	case CmdSetupNew:
		return "raffle:setup:new"
	case CmdSetupUpdate:
		return "raffle:setup:old"
	case CmdDateConfirm:
		return fmt.Sprintf("raffle:date:%s:confirmed", c.Field)
	case CmdDateAdjust:
		return fmt.Sprintf("raffle:date:%s:update:%+d", c.Field, c.DeltaMins)
	case CmdFeeConfirm:
		return "raffle:fee:confirmed"
	case CmdFeeAdjust:
		return fmt.Sprintf("raffle:fee:update:%+d", c.FeeDelta)
	}
	return ""
}
