package constants

import "time"

// device TCP endpoint
const DevicePort = 6668
const ConnectionTimeout = 5 * time.Second
const MaxAttempts = 3
const ReadBufferSize = 1024

// protocol version sent in front of "set" payloads
const ProtocolVersion = "3.3"

// discovery
const DiscoveryPortPlain = 6666
const DiscoveryPortEncrypted = 6667
const DiscoveryDeadline = 11 * time.Second
const DiscoveryReceiveTimeout = 10 * time.Second

// announcement envelope: frame header plus return code, crc plus suffix
const DiscoveryHeaderSize = 20
const DiscoveryTrailerSize = 8

// md5("yGAdlopoPVldABfn"), shared by every device on the LAN
const BroadcastKeyHex = "6c1ec8e2bb9bb59ab50b0daf649b410a"

// work modes
const ModeWhite = "white"
const ModeColour = "colour"
const ModeScene = "scene"
const ModeMusic = "music"

var Modes = []string{ModeWhite, ModeColour, ModeScene, ModeMusic}

// countdown bounds in seconds
const CountdownMin = 1
const CountdownMax = 86400

// ambient loop
const AmbientUpdateInterval = 2 * time.Second
const AmbientRestoreBrightness = 100
