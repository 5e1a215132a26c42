package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		line string
		cmd  CmdType
		want Reply
	}{
		{"ok", "ok", CmdSave, Reply{Kind: ReplyOK}},
		{"ok is a value for text commands", "ok", CmdRaw, Reply{Kind: ReplyValue, Value: []byte("ok")}},
		{"invalid_param", "invalid_param", CmdSetDataRate, Reply{Kind: ReplyError, Status: StatusInvalidParam}},
		{"not_joined", "not_joined", CmdTransmit, Reply{Kind: ReplyError, Status: StatusNotJoined}},
		{"busy", "busy", CmdJoin, Reply{Kind: ReplyError, Status: StatusBusy}},
		{"error token without outstanding command", "keys_not_init", CmdNone, Reply{Kind: ReplyError, Status: StatusKeysNotInit}},

		{"accepted", "accepted", CmdJoin, Reply{Kind: ReplyEvent, Event: EventJoinAccepted}},
		{"denied", "denied", CmdJoin, Reply{Kind: ReplyEvent, Event: EventJoinDenied}},
		{"mac_tx_ok", "mac_tx_ok", CmdTransmit, Reply{Kind: ReplyEvent, Event: EventTxOK}},
		{"mac_err", "mac_err", CmdTransmit, Reply{Kind: ReplyEvent, Event: EventTxFailed}},
		{"downlink", "mac_rx 101 000102feff", CmdTransmit,
			Reply{Kind: ReplyEvent, Event: EventDownlink, Port: 101, Value: []byte("000102feff")}},
		{"downlink without command", "mac_rx 1 ff", CmdNone,
			Reply{Kind: ReplyEvent, Event: EventDownlink, Port: 1, Value: []byte("ff")}},

		{"version banner", "RN2483 1.0.1 Dec 15 2015 09:38:09", CmdVersion,
			Reply{Kind: ReplyValue, Value: []byte("RN2483 1.0.1 Dec 15 2015 09:38:09")}},
		{"hweui uppercase", "0004A30B001C0530", CmdHwEUI,
			Reply{Kind: ReplyValue, Value: []byte("0004A30B001C0530")}},
		{"devaddr", "010203ff", CmdGetDevAddr, Reply{Kind: ReplyValue, Value: []byte("010203ff")}},
		{"nvm byte", "2a", CmdNvmGet, Reply{Kind: ReplyValue, Value: []byte("2a")}},
		{"decimal", "3372", CmdVdd, Reply{Kind: ReplyValue, Value: []byte("3372")}},
		{"adr on", "on", CmdGetADR, Reply{Kind: ReplyValue, Value: []byte("on")}},
		{"adr off", "off", CmdGetADR, Reply{Kind: ReplyValue, Value: []byte("off")}},

		{"empty", "", CmdSave, Reply{Kind: ReplyMalformed}},
		{"garbage", "wat", CmdSave, Reply{Kind: ReplyMalformed}},
		{"hex with wrong length", "0004a30b", CmdHwEUI, Reply{Kind: ReplyMalformed}},
		{"hex with non-hex char", "0004a30b001c053g", CmdHwEUI, Reply{Kind: ReplyMalformed}},
		{"decimal with letter", "33x2", CmdVdd, Reply{Kind: ReplyMalformed}},
		{"downlink port zero", "mac_rx 0 ff", CmdTransmit, Reply{Kind: ReplyMalformed}},
		{"downlink port too large", "mac_rx 224 ff", CmdTransmit, Reply{Kind: ReplyMalformed}},
		{"downlink port not numeric", "mac_rx x ff", CmdTransmit, Reply{Kind: ReplyMalformed}},
		{"downlink odd hex length", "mac_rx 5 fff", CmdTransmit, Reply{Kind: ReplyMalformed}},
		{"downlink empty data", "mac_rx 5 ", CmdTransmit, Reply{Kind: ReplyMalformed}},
		{"downlink missing data", "mac_rx 5", CmdTransmit, Reply{Kind: ReplyMalformed}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify([]byte(tc.line), tc.cmd)
			assert.Equal(t, tc.want, got)
		})
	}
}
