package network

import "encoding/json"

// Outbound message types.
const (
	MsgGreeting                  = "greeting"
	MsgNewLevelStarts            = "newLevelStarts"
	MsgUpdatePreparationInterval = "updatePreparationInterval"
	MsgUpdateCountdown           = "updateCountdown"
	MsgUpdateLifes               = "updateLifes"
	MsgUpdateLight               = "updateLight"
	MsgLevelCompleted            = "levelCompleted"
	MsgLevelFailed               = "levelFailed"
	MsgOfferSameLevel            = "offerSameLevel"
	MsgOfferNextLevel            = "offerNextLevel"
	MsgTimeIsUp                  = "timeIsUp"
	MsgBookRoomWarning           = "bookRoomWarning"
	MsgBookRoomExpired           = "bookRoomExpired"
	MsgBookRoomCountdown         = "bookRoomCountdown"
	MsgEndAndExit                = "endAndExit"
	MsgStoredGameStates          = "storedGameStates"
	MsgPlayerSuccess             = "playerSuccess"
	MsgPlayerFailed              = "playerFailed"
	MsgColorNames                = "colorNames"
	MsgIsUpcomingGameSession     = "isUpcomingGameSession"
	MsgRoomDisabled              = "roomDisabled"
)

// Inbound message types.
const (
	MsgLightClickAction = "lightClickAction"
	MsgColorNamesEnd    = "colorNamesEnd"
)

// Envelope holds the routing fields every inbound frame may carry.
type Envelope struct {
	Type        string `json:"type"`
	ChannelName string `json:"channelName"`
	ClientName  string `json:"clientname"`
}

// Channel returns the requested channel, accepting the legacy field name.
func (e Envelope) Channel() string {
	if e.ChannelName != "" {
		return e.ChannelName
	}
	return e.ClientName
}

func DecodeEnvelope(data []byte) (Envelope, error) {
	var e Envelope
	err := json.Unmarshal(data, &e)
	return e, err
}
