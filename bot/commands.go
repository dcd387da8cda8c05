package bot

import (
	"fmt"

	"voicecreate/models"

	"github.com/bwmarrin/discordgo"
)

var (
	zero          = 0.0
	minBitrate    = float64(models.MinBitrateKbps)
	guildOnly     = false
	voiceChannels = []discordgo.ChannelType{discordgo.ChannelTypeGuildVoice, discordgo.ChannelTypeGuildStageVoice}
)

func roleOption(description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionRole,
		Name:        "role",
		Description: description,
		Required:    required,
	}
}

func userOption(description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        "user",
		Description: description,
		Required:    required,
	}
}

func subcommand(name, description string, options ...*discordgo.ApplicationCommandOption) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Name:        name,
		Description: description,
		Options:     options,
	}
}

// Commands returns the slash commands the bot registers
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:         "voice",
			Description:  "Manage your voice channel",
			DMPermission: &guildOnly,
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("owner", "Give your channel to another member", userOption("The new owner", true)),
				subcommand("claim", "Take over a channel whose owner has left"),
				subcommand("permit", "Allow a member or role to join your channel",
					userOption("Member to allow", false),
					roleOption("Role to allow", false),
				),
				subcommand("reject", "Block a member or role from your channel",
					userOption("Member to block", false),
					roleOption("Role to block", false),
				),
				subcommand("lock", "Stop others from joining your channel", roleOption("Role to lock out. Default: the channel's default role", false)),
				subcommand("unlock", "Let others join your channel again", roleOption("Role to let back in", false)),
				subcommand("mute", "Stop others from speaking in your channel", roleOption("Role to mute", false)),
				subcommand("unmute", "Let others speak in your channel again", roleOption("Role to unmute", false)),
				subcommand("limit", "Set the user limit of your channel", &discordgo.ApplicationCommandOption{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "value",
					Description: "Maximum members, 0 for unlimited",
					Required:    true,
					MinValue:    &zero,
					MaxValue:    models.MaxChannelLimit,
				}),
				subcommand("bitrate", "Set the bitrate of your channel", &discordgo.ApplicationCommandOption{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "value",
					Description: "Bitrate in kbps",
					Required:    true,
					MinValue:    &minBitrate,
				}),
				subcommand("name", "Rename your channel", &discordgo.ApplicationCommandOption{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "value",
					Description: "The new name",
					Required:    true,
					MaxLength:   100,
				}),
				subcommand("whoowns", "Show who owns a channel", &discordgo.ApplicationCommandOption{
					Type:        discordgo.ApplicationCommandOptionChannel,
					Name:        "channel",
					Description: "Channel to check. Default: your voice channel",
				}),
				subcommand("rename", "Rename any tracked channel (admin)",
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "name",
						Description: "The new name",
						Required:    true,
						MaxLength:   100,
					},
					&discordgo.ApplicationCommandOption{
						Type:         discordgo.ApplicationCommandOptionChannel,
						Name:         "channel",
						Description:  "Channel to rename. Default: your voice channel",
						ChannelTypes: voiceChannels,
					},
				),
				subcommand("channels", "List tracked channels (admin)"),
				subcommand("track", "Start tracking your current voice channel (admin)"),
				subcommand("track-text", "Pair a text channel with your current voice channel (admin)", &discordgo.ApplicationCommandOption{
					Type:         discordgo.ApplicationCommandOptionChannel,
					Name:         "channel",
					Description:  "Text channel in the same category",
					Required:     true,
					ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
				}),
			},
		},
		{
			Name:         "setup",
			Description:  "Configure the bot for this server (admin)",
			DMPermission: &guildOnly,
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("create-channel", "Create a channel that makes a new voice channel when joined",
					&discordgo.ApplicationCommandOption{
						Type:         discordgo.ApplicationCommandOptionChannel,
						Name:         "category",
						Description:  "Category for the channel. Leave empty to create a new one",
						ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildCategory},
					},
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "name",
						Description: "Name of the create channel",
						MaxLength:   100,
					},
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionBoolean,
						Name:        "use_stage",
						Description: "Create stage channels instead of voice channels",
					},
				),
				subcommand("remove-channel", "Remove a create channel", &discordgo.ApplicationCommandOption{
					Type:         discordgo.ApplicationCommandOptionChannel,
					Name:         "channel",
					Description:  "The create channel",
					Required:     true,
					ChannelTypes: voiceChannels,
				}),
				subcommand("list", "List the create channels"),
				subcommand("category", "Set defaults for channels created in a category",
					&discordgo.ApplicationCommandOption{
						Type:         discordgo.ApplicationCommandOptionChannel,
						Name:         "category",
						Description:  "The category",
						Required:     true,
						ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildCategory},
					},
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "limit",
						Description: "User limit, 0 for unlimited. Default: 0",
						MinValue:    &zero,
						MaxValue:    models.MaxChannelLimit,
					},
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "bitrate",
						Description: "Bitrate in kbps. Default: 64",
						MinValue:    &minBitrate,
					},
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionBoolean,
						Name:        "locked",
						Description: "Lock new channels. Default: false",
					},
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionRole,
						Name:        "default_role",
						Description: "Role that locks apply to. Default: @everyone",
					},
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionBoolean,
						Name:        "auto_name",
						Description: "Name channels after their owner. Default: true",
					},
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionBoolean,
						Name:        "auto_game",
						Description: "Name channels after the owner's game. Default: false",
					},
					&discordgo.ApplicationCommandOption{
						Type:        discordgo.ApplicationCommandOptionBoolean,
						Name:        "allow_soundboard",
						Description: "Allow the soundboard. Default: false",
					},
				),
				{
					Type:        discordgo.ApplicationCommandOptionSubCommandGroup,
					Name:        "admin-role",
					Description: "Manage bot admin roles",
					Options: []*discordgo.ApplicationCommandOption{
						subcommand("add", "Add a bot admin role", roleOption("The role", true)),
						subcommand("remove", "Remove a bot admin role", roleOption("The role", true)),
					},
				},
				subcommand("prefix", "Set the command prefixes", &discordgo.ApplicationCommandOption{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "prefixes",
					Description: "Prefixes separated by spaces or commas",
					Required:    true,
				}),
				subcommand("default-role", "Set the role that locks apply to", roleOption("The role. Leave empty for @everyone", false)),
				subcommand("language", "Set the bot language", &discordgo.ApplicationCommandOption{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "language",
					Description: "Language code, e.g. en-us",
					Required:    true,
				}),
			},
		},
	}
}

// registerCommands registers all slash commands with Discord
func (b *Bot) registerCommands() error {
	for _, cmd := range Commands() {
		_, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, "", cmd)
		if err != nil {
			return fmt.Errorf("cannot create '%s' command: %w", cmd.Name, err)
		}
	}

	return nil
}
