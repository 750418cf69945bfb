package teehistorian

import (
	"strings"

	"github.com/google/uuid"
)

// Kind identifies the type of a chunk.
type Kind uint8

// Chunk kinds.
const (
	kindNone Kind = iota
	KindJoin
	KindJoinVer6
	KindJoinVer7
	KindRejoinVer6
	KindDrop
	KindPlayerReady
	KindPlayerNew
	KindPlayerOld
	KindPlayerTeam
	KindPlayerName
	KindPlayerDiff
	KindInputNew
	KindInputDiff
	KindNetMessage
	KindConsoleCommand
	KindAuthInit
	KindAuthLogin
	KindAuthLogout
	KindDdnetVersionOld
	KindDdnetVersion
	KindTickSkip
	KindTeamSaveSuccess
	KindTeamSaveFailure
	KindTeamLoadSuccess
	KindTeamLoadFailure
	KindAntiBot
	KindCustomChunk
	KindUnknown
	KindGeneric
	KindEos
	numKinds
)

var kindNames = [numKinds]string{
	kindNone:            "None",
	KindJoin:            "Join",
	KindJoinVer6:        "JoinVer6",
	KindJoinVer7:        "JoinVer7",
	KindRejoinVer6:      "RejoinVer6",
	KindDrop:            "Drop",
	KindPlayerReady:     "PlayerReady",
	KindPlayerNew:       "PlayerNew",
	KindPlayerOld:       "PlayerOld",
	KindPlayerTeam:      "PlayerTeam",
	KindPlayerName:      "PlayerName",
	KindPlayerDiff:      "PlayerDiff",
	KindInputNew:        "InputNew",
	KindInputDiff:       "InputDiff",
	KindNetMessage:      "NetMessage",
	KindConsoleCommand:  "ConsoleCommand",
	KindAuthInit:        "AuthInit",
	KindAuthLogin:       "AuthLogin",
	KindAuthLogout:      "AuthLogout",
	KindDdnetVersionOld: "DdnetVersionOld",
	KindDdnetVersion:    "DdnetVersion",
	KindTickSkip:        "TickSkip",
	KindTeamSaveSuccess: "TeamSaveSuccess",
	KindTeamSaveFailure: "TeamSaveFailure",
	KindTeamLoadSuccess: "TeamLoadSuccess",
	KindTeamLoadFailure: "TeamLoadFailure",
	KindAntiBot:         "AntiBot",
	KindCustomChunk:     "CustomChunk",
	KindUnknown:         "Unknown",
	KindGeneric:         "Generic",
	KindEos:             "Eos",
}

// Kinds returns all valid chunk kinds in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, numKinds-1)
	for k := KindJoin; k < numKinds; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

func (k Kind) String() string {
	if k < numKinds {
		return kindNames[k]
	}
	return "Invalid"
}

// Category returns the category the kind belongs to.
func (k Kind) Category() Category {
	switch k {
	case KindJoin, KindJoinVer6, KindJoinVer7, KindRejoinVer6, KindDrop:
		return CategoryConnection
	case KindPlayerReady:
		return CategoryPlayerLifecycle
	case KindPlayerNew, KindPlayerOld, KindPlayerTeam, KindPlayerName, KindPlayerDiff:
		return CategoryPlayerState
	case KindInputNew, KindInputDiff:
		return CategoryInput
	case KindNetMessage, KindConsoleCommand:
		return CategoryCommunication
	case KindAuthInit, KindAuthLogin, KindAuthLogout:
		return CategoryAuth
	case KindDdnetVersionOld, KindDdnetVersion:
		return CategoryVersionInfo
	case KindTickSkip, KindTeamSaveSuccess, KindTeamSaveFailure, KindTeamLoadSuccess, KindTeamLoadFailure, KindAntiBot:
		return CategoryServer
	case KindCustomChunk, KindUnknown, KindGeneric:
		return CategoryExtension
	case KindEos:
		return CategoryTerminal
	}
	return categoryNone
}

// Category groups related chunk kinds.
type Category uint8

// Chunk categories.
const (
	categoryNone Category = iota
	CategoryConnection
	CategoryPlayerLifecycle
	CategoryPlayerState
	CategoryInput
	CategoryCommunication
	CategoryAuth
	CategoryVersionInfo
	CategoryServer
	CategoryExtension
	CategoryTerminal
)

func (c Category) String() string {
	switch c {
	case CategoryConnection:
		return "Connection"
	case CategoryPlayerLifecycle:
		return "PlayerLifecycle"
	case CategoryPlayerState:
		return "PlayerState"
	case CategoryInput:
		return "Input"
	case CategoryCommunication:
		return "Communication"
	case CategoryAuth:
		return "Auth"
	case CategoryVersionInfo:
		return "VersionInfo"
	case CategoryServer:
		return "Server"
	case CategoryExtension:
		return "Extension"
	case CategoryTerminal:
		return "Terminal"
	}
	return "None"
}

// --------------------------------------------------------------------

// Chunk tags. Non-negative tags encode a PlayerDiff for that client ID.
const (
	tagEos            int32 = -1
	tagTickSkip       int32 = -2
	tagPlayerNew      int32 = -3
	tagPlayerOld      int32 = -4
	tagInputDiff      int32 = -5
	tagInputNew       int32 = -6
	tagNetMessage     int32 = -7
	tagJoin           int32 = -8
	tagDrop           int32 = -9
	tagConsoleCommand int32 = -10
	tagEx             int32 = -11
)

// Well-known extension UUIDs.
var (
	UUIDJoinVer6        = CalculateUUID("teehistorian-joinver6@ddnet.tw")
	UUIDJoinVer7        = CalculateUUID("teehistorian-joinver7@ddnet.tw")
	UUIDRejoinVer6      = CalculateUUID("teehistorian-rejoinver6@ddnet.tw")
	UUIDPlayerReady     = CalculateUUID("teehistorian-player-ready@ddnet.tw")
	UUIDPlayerTeam      = CalculateUUID("teehistorian-player-team@ddnet.tw")
	UUIDPlayerName      = CalculateUUID("teehistorian-player-name@ddnet.tw")
	UUIDAuthInit        = CalculateUUID("teehistorian-auth-init@ddnet.tw")
	UUIDAuthLogin       = CalculateUUID("teehistorian-auth-login@ddnet.tw")
	UUIDAuthLogout      = CalculateUUID("teehistorian-auth-logout@ddnet.tw")
	UUIDDdnetVersionOld = CalculateUUID("teehistorian-ddnetver-old@ddnet.tw")
	UUIDDdnetVersion    = CalculateUUID("teehistorian-ddnetver@ddnet.tw")
	UUIDTeamSaveSuccess = CalculateUUID("teehistorian-save-success@ddnet.tw")
	UUIDTeamSaveFailure = CalculateUUID("teehistorian-save-failure@ddnet.tw")
	UUIDTeamLoadSuccess = CalculateUUID("teehistorian-load-success@ddnet.tw")
	UUIDTeamLoadFailure = CalculateUUID("teehistorian-load-failure@ddnet.tw")
	UUIDAntiBot         = CalculateUUID("teehistorian-antibot@ddnet.tw")
)

// --------------------------------------------------------------------

// Chunk is a single record of a teehistorian stream. The set of
// implementations is closed; switch over Kind (or the concrete type) to
// consume chunks.
//
// Empty and nil slices encode the same way. Decoded chunks always carry
// nil for an empty byte payload or argument list.
type Chunk interface {
	// Kind returns the chunk kind.
	Kind() Kind

	appendTo(dst []byte) ([]byte, error)
}

// ClientIDOf returns the client ID carried by c, if any.
func ClientIDOf(c Chunk) (int32, bool) {
	switch c := c.(type) {
	case Join:
		return c.ClientID, true
	case JoinVer6:
		return c.ClientID, true
	case JoinVer7:
		return c.ClientID, true
	case RejoinVer6:
		return c.ClientID, true
	case Drop:
		return c.ClientID, true
	case PlayerReady:
		return c.ClientID, true
	case PlayerNew:
		return c.ClientID, true
	case PlayerOld:
		return c.ClientID, true
	case PlayerTeam:
		return c.ClientID, true
	case PlayerName:
		return c.ClientID, true
	case PlayerDiff:
		return c.ClientID, true
	case InputNew:
		return c.ClientID, true
	case InputDiff:
		return c.ClientID, true
	case NetMessage:
		return c.ClientID, true
	case ConsoleCommand:
		return c.ClientID, true
	case AuthInit:
		return c.ClientID, true
	case AuthLogin:
		return c.ClientID, true
	case AuthLogout:
		return c.ClientID, true
	case DdnetVersionOld:
		return c.ClientID, true
	case DdnetVersion:
		return c.ClientID, true
	}
	return 0, false
}

func checkString(field, s string) error {
	if strings.IndexByte(s, 0) >= 0 {
		return newValidationError("%s contains a NUL byte", field)
	}
	return nil
}

func appendEx(dst []byte, u uuid.UUID, payload []byte) []byte {
	dst = AppendInt(dst, tagEx)
	dst = appendUUID(dst, u)
	return appendBytes(dst, payload)
}

func appendExInt(dst []byte, u uuid.UUID, vv ...int32) []byte {
	var payload []byte
	for _, v := range vv {
		payload = AppendInt(payload, v)
	}
	return appendEx(dst, u, payload)
}

// --------------------------------------------------------------------

// Join is recorded when a client connects.
type Join struct {
	ClientID int32
}

func (Join) Kind() Kind { return KindJoin }

func (c Join) appendTo(dst []byte) ([]byte, error) {
	dst = AppendInt(dst, tagJoin)
	return AppendInt(dst, c.ClientID), nil
}

// JoinVer6 marks a connection using the 0.6 protocol.
type JoinVer6 struct {
	ClientID int32
}

func (JoinVer6) Kind() Kind { return KindJoinVer6 }

func (c JoinVer6) appendTo(dst []byte) ([]byte, error) {
	return appendExInt(dst, UUIDJoinVer6, c.ClientID), nil
}

// JoinVer7 marks a connection using the 0.7 protocol.
type JoinVer7 struct {
	ClientID int32
}

func (JoinVer7) Kind() Kind { return KindJoinVer7 }

func (c JoinVer7) appendTo(dst []byte) ([]byte, error) {
	return appendExInt(dst, UUIDJoinVer7, c.ClientID), nil
}

// RejoinVer6 marks a 0.6 client reconnecting into an existing slot.
type RejoinVer6 struct {
	ClientID int32
}

func (RejoinVer6) Kind() Kind { return KindRejoinVer6 }

func (c RejoinVer6) appendTo(dst []byte) ([]byte, error) {
	return appendExInt(dst, UUIDRejoinVer6, c.ClientID), nil
}

// Drop is recorded when a client disconnects.
type Drop struct {
	ClientID int32
	Reason   string
}

func (Drop) Kind() Kind { return KindDrop }

func (c Drop) appendTo(dst []byte) ([]byte, error) {
	if err := checkString("drop reason", c.Reason); err != nil {
		return dst, err
	}
	dst = AppendInt(dst, tagDrop)
	dst = AppendInt(dst, c.ClientID)
	return appendString(dst, c.Reason), nil
}

// PlayerReady is recorded when a client finished loading.
type PlayerReady struct {
	ClientID int32
}

func (PlayerReady) Kind() Kind { return KindPlayerReady }

func (c PlayerReady) appendTo(dst []byte) ([]byte, error) {
	return appendExInt(dst, UUIDPlayerReady, c.ClientID), nil
}

// PlayerNew is recorded when a player character spawns at an absolute
// position.
type PlayerNew struct {
	ClientID int32
	X, Y     int32
}

func (PlayerNew) Kind() Kind { return KindPlayerNew }

func (c PlayerNew) appendTo(dst []byte) ([]byte, error) {
	dst = AppendInt(dst, tagPlayerNew)
	dst = AppendInt(dst, c.ClientID)
	dst = AppendInt(dst, c.X)
	return AppendInt(dst, c.Y), nil
}

// PlayerOld is recorded when a player character is removed.
type PlayerOld struct {
	ClientID int32
}

func (PlayerOld) Kind() Kind { return KindPlayerOld }

func (c PlayerOld) appendTo(dst []byte) ([]byte, error) {
	dst = AppendInt(dst, tagPlayerOld)
	return AppendInt(dst, c.ClientID), nil
}

// PlayerTeam is recorded when a player changes team.
type PlayerTeam struct {
	ClientID int32
	Team     int32
}

func (PlayerTeam) Kind() Kind { return KindPlayerTeam }

func (c PlayerTeam) appendTo(dst []byte) ([]byte, error) {
	return appendExInt(dst, UUIDPlayerTeam, c.ClientID, c.Team), nil
}

// PlayerName is recorded when a player sets or changes their name.
type PlayerName struct {
	ClientID int32
	Name     string
}

func (PlayerName) Kind() Kind { return KindPlayerName }

func (c PlayerName) appendTo(dst []byte) ([]byte, error) {
	if err := checkString("player name", c.Name); err != nil {
		return dst, err
	}
	payload := AppendInt(nil, c.ClientID)
	payload = appendString(payload, c.Name)
	return appendEx(dst, UUIDPlayerName, payload), nil
}

// PlayerDiff is a position change relative to the previous tick.
type PlayerDiff struct {
	ClientID int32
	DX, DY   int32
}

func (PlayerDiff) Kind() Kind { return KindPlayerDiff }

func (c PlayerDiff) appendTo(dst []byte) ([]byte, error) {
	if c.ClientID < 0 {
		return dst, newValidationError("player diff client id %d must not be negative", c.ClientID)
	}
	dst = AppendInt(dst, c.ClientID)
	dst = AppendInt(dst, c.DX)
	return AppendInt(dst, c.DY), nil
}

// InputNew is a full player input snapshot.
type InputNew struct {
	ClientID int32
	Input    [InputSize]int32
}

func (InputNew) Kind() Kind { return KindInputNew }

func (c InputNew) appendTo(dst []byte) ([]byte, error) {
	dst = AppendInt(dst, tagInputNew)
	dst = AppendInt(dst, c.ClientID)
	for _, v := range c.Input {
		dst = AppendInt(dst, v)
	}
	return dst, nil
}

// InputDiff is a player input delta against the previous input.
type InputDiff struct {
	ClientID int32
	Input    [InputSize]int32
}

func (InputDiff) Kind() Kind { return KindInputDiff }

func (c InputDiff) appendTo(dst []byte) ([]byte, error) {
	dst = AppendInt(dst, tagInputDiff)
	dst = AppendInt(dst, c.ClientID)
	for _, v := range c.Input {
		dst = AppendInt(dst, v)
	}
	return dst, nil
}

// NetMessage is a raw network message received from a client.
type NetMessage struct {
	ClientID int32
	Msg      []byte
}

func (NetMessage) Kind() Kind { return KindNetMessage }

func (c NetMessage) appendTo(dst []byte) ([]byte, error) {
	dst = AppendInt(dst, tagNetMessage)
	dst = AppendInt(dst, c.ClientID)
	return appendBytes(dst, c.Msg), nil
}

// ConsoleCommand is a console command executed by a client or the server.
type ConsoleCommand struct {
	ClientID int32
	Flags    int32
	Cmd      string
	Args     []string
}

func (ConsoleCommand) Kind() Kind { return KindConsoleCommand }

func (c ConsoleCommand) appendTo(dst []byte) ([]byte, error) {
	if err := checkString("console command", c.Cmd); err != nil {
		return dst, err
	}
	for _, arg := range c.Args {
		if err := checkString("console argument", arg); err != nil {
			return dst, err
		}
	}

	dst = AppendInt(dst, tagConsoleCommand)
	dst = AppendInt(dst, c.ClientID)
	dst = AppendInt(dst, c.Flags)
	dst = appendString(dst, c.Cmd)
	dst = AppendInt(dst, int32(len(c.Args)))
	for _, arg := range c.Args {
		dst = appendString(dst, arg)
	}
	return dst, nil
}

// AuthInit is recorded when a client is authenticated on join.
type AuthInit struct {
	ClientID int32
	Level    int32
	AuthName string
}

func (AuthInit) Kind() Kind { return KindAuthInit }

func (c AuthInit) appendTo(dst []byte) ([]byte, error) {
	return appendAuth(dst, UUIDAuthInit, c.ClientID, c.Level, c.AuthName)
}

// AuthLogin is recorded when a client logs in to an account.
type AuthLogin struct {
	ClientID int32
	Level    int32
	AuthName string
}

func (AuthLogin) Kind() Kind { return KindAuthLogin }

func (c AuthLogin) appendTo(dst []byte) ([]byte, error) {
	return appendAuth(dst, UUIDAuthLogin, c.ClientID, c.Level, c.AuthName)
}

func appendAuth(dst []byte, u uuid.UUID, cid, level int32, name string) ([]byte, error) {
	if err := checkString("auth name", name); err != nil {
		return dst, err
	}
	payload := AppendInt(nil, cid)
	payload = AppendInt(payload, level)
	payload = appendString(payload, name)
	return appendEx(dst, u, payload), nil
}

// AuthLogout is recorded when a client logs out.
type AuthLogout struct {
	ClientID int32
}

func (AuthLogout) Kind() Kind { return KindAuthLogout }

func (c AuthLogout) appendTo(dst []byte) ([]byte, error) {
	return appendExInt(dst, UUIDAuthLogout, c.ClientID), nil
}

// DdnetVersionOld carries the client version reported by legacy clients.
type DdnetVersionOld struct {
	ClientID int32
	Version  int32
}

func (DdnetVersionOld) Kind() Kind { return KindDdnetVersionOld }

func (c DdnetVersionOld) appendTo(dst []byte) ([]byte, error) {
	return appendExInt(dst, UUIDDdnetVersionOld, c.ClientID, c.Version), nil
}

// DdnetVersion carries the client version and connection ID.
type DdnetVersion struct {
	ClientID     int32
	ConnectionID uuid.UUID
	Version      int32
	VersionStr   string
}

func (DdnetVersion) Kind() Kind { return KindDdnetVersion }

func (c DdnetVersion) appendTo(dst []byte) ([]byte, error) {
	if err := checkString("version string", c.VersionStr); err != nil {
		return dst, err
	}
	payload := AppendInt(nil, c.ClientID)
	payload = appendUUID(payload, c.ConnectionID)
	payload = AppendInt(payload, c.Version)
	payload = appendString(payload, c.VersionStr)
	return appendEx(dst, UUIDDdnetVersion, payload), nil
}

// TickSkip advances the tick counter by DT ticks beyond the implicit one.
type TickSkip struct {
	DT int32
}

func (TickSkip) Kind() Kind { return KindTickSkip }

func (c TickSkip) appendTo(dst []byte) ([]byte, error) {
	dst = AppendInt(dst, tagTickSkip)
	return AppendInt(dst, c.DT), nil
}

// TeamSaveSuccess is recorded when a team save was stored.
type TeamSaveSuccess struct {
	Team   int32
	SaveID uuid.UUID
	Save   string
}

func (TeamSaveSuccess) Kind() Kind { return KindTeamSaveSuccess }

func (c TeamSaveSuccess) appendTo(dst []byte) ([]byte, error) {
	return appendTeamSave(dst, UUIDTeamSaveSuccess, c.Team, c.SaveID, c.Save)
}

// TeamSaveFailure is recorded when a team save failed.
type TeamSaveFailure struct {
	Team int32
}

func (TeamSaveFailure) Kind() Kind { return KindTeamSaveFailure }

func (c TeamSaveFailure) appendTo(dst []byte) ([]byte, error) {
	return appendExInt(dst, UUIDTeamSaveFailure, c.Team), nil
}

// TeamLoadSuccess is recorded when a team save was loaded.
type TeamLoadSuccess struct {
	Team   int32
	SaveID uuid.UUID
	Save   string
}

func (TeamLoadSuccess) Kind() Kind { return KindTeamLoadSuccess }

func (c TeamLoadSuccess) appendTo(dst []byte) ([]byte, error) {
	return appendTeamSave(dst, UUIDTeamLoadSuccess, c.Team, c.SaveID, c.Save)
}

func appendTeamSave(dst []byte, u uuid.UUID, team int32, saveID uuid.UUID, save string) ([]byte, error) {
	if err := checkString("team save", save); err != nil {
		return dst, err
	}
	payload := AppendInt(nil, team)
	payload = appendUUID(payload, saveID)
	payload = appendString(payload, save)
	return appendEx(dst, u, payload), nil
}

// TeamLoadFailure is recorded when loading a team save failed.
type TeamLoadFailure struct {
	Team int32
}

func (TeamLoadFailure) Kind() Kind { return KindTeamLoadFailure }

func (c TeamLoadFailure) appendTo(dst []byte) ([]byte, error) {
	return appendExInt(dst, UUIDTeamLoadFailure, c.Team), nil
}

// AntiBot carries opaque data written by the anti-bot module.
type AntiBot struct {
	Data []byte
}

func (AntiBot) Kind() Kind { return KindAntiBot }

func (c AntiBot) appendTo(dst []byte) ([]byte, error) {
	return appendEx(dst, UUIDAntiBot, c.Data), nil
}

// CustomChunk is an extension record whose UUID is registered with a
// handler name.
type CustomChunk struct {
	UUID        uuid.UUID
	Data        []byte
	HandlerName string
}

func (CustomChunk) Kind() Kind { return KindCustomChunk }

func (c CustomChunk) appendTo(dst []byte) ([]byte, error) {
	return appendEx(dst, c.UUID, c.Data), nil
}

// Unknown is an extension record with an unregistered UUID.
type Unknown struct {
	UUID uuid.UUID
	Data []byte
}

func (Unknown) Kind() Kind { return KindUnknown }

func (c Unknown) appendTo(dst []byte) ([]byte, error) {
	return appendEx(dst, c.UUID, c.Data), nil
}

// Generic is a well-known extension record whose payload could not be
// decoded. UUID and Data hold the original record, Description the reason.
type Generic struct {
	UUID        uuid.UUID
	Data        []byte
	Description string
}

func (Generic) Kind() Kind { return KindGeneric }

func (c Generic) appendTo(dst []byte) ([]byte, error) {
	if c.UUID == uuid.Nil {
		return dst, newValidationError("%v: %q", errMissingGenericID, c.Description)
	}
	return appendEx(dst, c.UUID, c.Data), nil
}

// Eos marks the end of a stream.
type Eos struct{}

func (Eos) Kind() Kind { return KindEos }

func (Eos) appendTo(dst []byte) ([]byte, error) {
	return AppendInt(dst, tagEos), nil
}
