package common

import (
	"fmt"
	"strings"
	"time"

	"voicecreate/gateway"

	"github.com/bwmarrin/discordgo"
)

// Discord color constants
const (
	ColorPrimary = 0x5865F2 // Discord blurple
	ColorSuccess = 0x57F287 // Green
	ColorDanger  = 0xED4245 // Red
	ColorInfo    = 0x3498DB // Blue
)

// FormatDiscordTimestamp formats a time as a Discord timestamp that displays in user's local timezone
// Format types: "t" = short time, "T" = long time, "d" = short date, "D" = long date,
// "f" = short date/time, "F" = long date/time, "R" = relative time
func FormatDiscordTimestamp(t time.Time, format string) string {
	return fmt.Sprintf("<t:%d:%s>", t.Unix(), format)
}

func UserMention(userID int64) string {
	return fmt.Sprintf("<@%d>", userID)
}

func ChannelMention(channelID int64) string {
	return fmt.Sprintf("<#%d>", channelID)
}

// RoleMention renders a role; the guild id is the @everyone role
func RoleMention(guildID, roleID int64) string {
	if roleID == guildID {
		return "@everyone"
	}
	return fmt.Sprintf("<@&%d>", roleID)
}

// FormatLimit renders a user limit, 0 being unlimited
func FormatLimit(limit int) string {
	if limit == 0 {
		return "unlimited"
	}
	return fmt.Sprintf("%d", limit)
}

// ParseYesNo interprets a confirmation reply
func ParseYesNo(reply string) (yes bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(reply)) {
	case "y", "yes":
		return true, true
	case "n", "no":
		return false, true
	default:
		return false, false
	}
}

// Options indexes the options of the innermost subcommand by name
type Options map[string]*discordgo.ApplicationCommandInteractionDataOption

// SubcommandOptions walks subcommand groups and returns the path and leaf options
func SubcommandOptions(options []*discordgo.ApplicationCommandInteractionDataOption) ([]string, Options) {
	var path []string
	for len(options) > 0 {
		opt := options[0]
		if opt.Type != discordgo.ApplicationCommandOptionSubCommand && opt.Type != discordgo.ApplicationCommandOptionSubCommandGroup {
			break
		}
		path = append(path, opt.Name)
		options = opt.Options
	}

	indexed := make(Options, len(options))
	for _, opt := range options {
		indexed[opt.Name] = opt
	}
	return path, indexed
}

// ID returns a snowflake option (user, role, channel or mentionable) as int64
func (o Options) ID(name string) (int64, bool) {
	opt, ok := o[name]
	if !ok {
		return 0, false
	}
	s, ok := opt.Value.(string)
	if !ok {
		return 0, false
	}
	id, err := gateway.ParseID(s)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

func (o Options) String(name string) (string, bool) {
	opt, ok := o[name]
	if !ok {
		return "", false
	}
	s, ok := opt.Value.(string)
	return s, ok
}

func (o Options) Int(name string) (int, bool) {
	opt, ok := o[name]
	if !ok {
		return 0, false
	}
	f, ok := opt.Value.(float64)
	return int(f), ok
}

func (o Options) Bool(name string) (bool, bool) {
	opt, ok := o[name]
	if !ok {
		return false, false
	}
	b, ok := opt.Value.(bool)
	return b, ok
}
