package config

import "github.com/spf13/pflag"

// AddCommonFlags registers flags shared by every command.
func AddCommonFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a YAML config file")
	fs.String("log-level", DefaultLogLevel, "log level: debug, info, warn, error")
}

// AddServerFlags registers the broker's flags.
func AddServerFlags(fs *pflag.FlagSet) {
	fs.String("addr", "", "listen address, overrides --port (e.g. 127.0.0.1:3000)")
	fs.String("port", DefaultPort, "listen port")
	fs.StringSlice("allowed-origins", nil, "origins allowed to open websockets (default: any)")
	fs.Int("read-buffer-size", DefaultReadBufferSize, "websocket read buffer in bytes")
	fs.Int("write-buffer-size", DefaultWriteBufferSize, "websocket write buffer in bytes")
	fs.Int64("max-message-size", DefaultMaxMessageSize, "largest inbound frame in bytes")
	fs.Int("send-buffer", DefaultSendBuffer, "outbound messages queued per connection")
}

// AddClientFlags registers the chat client's flags.
func AddClientFlags(fs *pflag.FlagSet) {
	fs.String("server-url", DefaultServerURL, "broker websocket URL")
	fs.String("codec", "json", "wire codec: json or msgpack")
}
