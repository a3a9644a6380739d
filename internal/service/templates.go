package service

import "fmt"

// systemdScript replaces kardianos' default unit, which targets system
// services (multi-user.target, a fixed 120s restart delay). It is rendered
// by kardianos with the service Config embedded and the executable as
// .Path.
var systemdScript = fmt.Sprintf(`[Unit]
Description={{.Description}}
ConditionFileIsExecutable={{.Path|cmdEscape}}
After=graphical-session.target
PartOf=graphical-session.target

[Service]
Type=simple
ExecStart={{.Path|cmdEscape}}{{range .Arguments}} {{.|cmd}}{{end}}
Restart=on-failure
RestartSec=%d

[Install]
WantedBy=default.target
`, RestartDelaySec)

// launchdConfig restarts the agent only when it exits with an error.
var launchdConfig = fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>{{html .Name}}</string>
	<key>ProgramArguments</key>
	<array>
		<string>{{html .Path}}</string>
{{- range .Arguments}}
		<string>{{html .}}</string>
{{- end}}
	</array>
	<key>RunAtLoad</key>
	<true/>
	<key>KeepAlive</key>
	<dict>
		<key>SuccessfulExit</key>
		<false/>
	</dict>
	<key>ThrottleInterval</key>
	<integer>%d</integer>
	<key>ProcessType</key>
	<string>Interactive</string>
</dict>
</plist>
`, RestartDelaySec)
