package domain

import "hon2mqtt/pkg/honcloud"

type SwitchKind int

const (
	// SwitchKindControl starts or stops an appliance program.
	SwitchKindControl SwitchKind = iota
	// SwitchKindConfig toggles a program option staged for the next start.
	SwitchKindConfig
	// SwitchKindSetting toggles a live appliance setting.
	SwitchKindSetting
)

// SwitchDescription declares one switch entity for an appliance type.
// Key addresses the vendor attribute or parameter; Id names the MQTT entity.
type SwitchDescription struct {
	Id         string
	Key        string
	Name       string
	Icon       string
	Kind       SwitchKind
	OnCommand  string
	OffCommand string
}

// Switches maps each appliance type code to the switches it can expose.
// Which of them materialize for a concrete appliance depends on the
// settings and commands that appliance actually reports.
var Switches = map[string][]SwitchDescription{
	honcloud.TYPE_WASHING_MACHINE: {
		{Id: "active", Key: "active", Name: "Washing Machine", Icon: "mdi:washing-machine",
			Kind: SwitchKindControl, OnCommand: honcloud.COMMAND_START_PROGRAM, OffCommand: honcloud.COMMAND_STOP_PROGRAM},
		{Id: "pause", Key: "pause", Name: "Pause Washing Machine", Icon: "mdi:pause",
			Kind: SwitchKindControl, OnCommand: honcloud.COMMAND_PAUSE_PROGRAM, OffCommand: honcloud.COMMAND_RESUME_PROGRAM},
		{Id: "delay_status", Key: "startProgram.delayStatus", Name: "Delay Status", Icon: "mdi:timer-check", Kind: SwitchKindConfig},
		{Id: "soak_prewash", Key: "startProgram.haier_SoakPrewashSelection", Name: "Soak Prewash Selection", Icon: "mdi:tshirt-crew", Kind: SwitchKindConfig},
		{Id: "prewash", Key: "startProgram.prewash", Name: "Prewash", Icon: "mdi:tshirt-crew", Kind: SwitchKindConfig},
		{Id: "keep_fresh", Key: "startProgram.permanentPressStatus", Name: "Keep Fresh", Icon: "mdi:refresh-circle", Kind: SwitchKindConfig},
		{Id: "auto_softener_option", Key: "startProgram.autoSoftenerStatus", Name: "Auto Dose Softener", Icon: "mdi:teddy-bear", Kind: SwitchKindConfig},
		{Id: "auto_detergent_option", Key: "startProgram.autoDetergentStatus", Name: "Auto Dose Detergent", Icon: "mdi:cup", Kind: SwitchKindConfig},
		{Id: "auto_softener", Key: "autoSoftenerStatus", Name: "Auto Dose Softener", Icon: "mdi:teddy-bear", Kind: SwitchKindSetting},
		{Id: "auto_detergent", Key: "autoDetergentStatus", Name: "Auto Dose Detergent", Icon: "mdi:cup", Kind: SwitchKindSetting},
		{Id: "acqua_plus", Key: "startProgram.acquaplus", Name: "Acqua Plus", Icon: "mdi:water-plus", Kind: SwitchKindConfig},
		{Id: "extra_rinse_1", Key: "startProgram.extraRinse1", Name: "Extra Rinse 1", Icon: "mdi:numeric-1-box-multiple-outline", Kind: SwitchKindConfig},
		{Id: "extra_rinse_2", Key: "startProgram.extraRinse2", Name: "Extra Rinse 2", Icon: "mdi:numeric-2-box-multiple-outline", Kind: SwitchKindConfig},
		{Id: "extra_rinse_3", Key: "startProgram.extraRinse3", Name: "Extra Rinse 3", Icon: "mdi:numeric-3-box-multiple-outline", Kind: SwitchKindConfig},
		{Id: "good_night", Key: "startProgram.goodNight", Name: "Good Night", Icon: "mdi:weather-night", Kind: SwitchKindConfig},
		{Id: "hygiene", Key: "startProgram.hygiene", Name: "Hygiene", Icon: "mdi:lotion-plus", Kind: SwitchKindConfig},
		{Id: "anti_crease", Key: "startProgram.anticrease", Name: "Anti-Crease", Icon: "mdi:iron", Kind: SwitchKindConfig},
	},
	honcloud.TYPE_TUMBLE_DRYER: {
		{Id: "active", Key: "active", Name: "Tumble Dryer", Icon: "mdi:tumble-dryer",
			Kind: SwitchKindControl, OnCommand: honcloud.COMMAND_START_PROGRAM, OffCommand: honcloud.COMMAND_STOP_PROGRAM},
		{Id: "pause", Key: "pause", Name: "Pause Tumble Dryer", Icon: "mdi:pause",
			Kind: SwitchKindControl, OnCommand: honcloud.COMMAND_PAUSE_PROGRAM, OffCommand: honcloud.COMMAND_RESUME_PROGRAM},
		{Id: "sterilization", Key: "startProgram.sterilizationStatus", Name: "Sterilization", Icon: "mdi:lotion-plus", Kind: SwitchKindConfig},
		{Id: "tumbling", Key: "startProgram.tumblingStatus", Name: "Tumbling", Icon: "mdi:refresh-circle", Kind: SwitchKindConfig},
		{Id: "anti_crease_time", Key: "startProgram.antiCreaseTime", Name: "Anti-Crease", Icon: "mdi:iron", Kind: SwitchKindConfig},
		{Id: "anti_crease", Key: "startProgram.anticrease", Name: "Anti-Crease", Icon: "mdi:iron", Kind: SwitchKindConfig},
	},
	honcloud.TYPE_OVEN: {
		{Id: "active", Key: "active", Name: "Oven", Icon: "mdi:toaster-oven",
			Kind: SwitchKindControl, OnCommand: honcloud.COMMAND_START_PROGRAM, OffCommand: honcloud.COMMAND_STOP_PROGRAM},
		{Id: "preheat", Key: "startProgram.preheatStatus", Name: "Preheat", Icon: "mdi:thermometer-chevron-up", Kind: SwitchKindConfig},
	},
	honcloud.TYPE_WASHER_DRYER: {
		{Id: "active", Key: "active", Name: "Washer Dryer", Icon: "mdi:washing-machine",
			Kind: SwitchKindControl, OnCommand: honcloud.COMMAND_START_PROGRAM, OffCommand: honcloud.COMMAND_STOP_PROGRAM},
		{Id: "pause", Key: "pause", Name: "Pause Washer Dryer", Icon: "mdi:pause",
			Kind: SwitchKindControl, OnCommand: honcloud.COMMAND_PAUSE_PROGRAM, OffCommand: honcloud.COMMAND_RESUME_PROGRAM},
	},
	honcloud.TYPE_DISH_WASHER: {
		{Id: "active", Key: "active", Name: "Dish Washer", Icon: "mdi:dishwasher",
			Kind: SwitchKindControl, OnCommand: honcloud.COMMAND_START_PROGRAM, OffCommand: honcloud.COMMAND_STOP_PROGRAM},
		{Id: "extra_dry", Key: "startProgram.extraDry", Name: "Extra Dry", Icon: "mdi:hair-dryer", Kind: SwitchKindConfig},
		{Id: "half_load", Key: "startProgram.halfLoad", Name: "Half Load", Icon: "mdi:fraction-one-half", Kind: SwitchKindConfig},
		{Id: "open_door", Key: "startProgram.openDoor", Name: "Open Door", Icon: "mdi:door-open", Kind: SwitchKindConfig},
		{Id: "three_in_one", Key: "startProgram.threeInOne", Name: "Three in One", Icon: "mdi:numeric-3-box-outline", Kind: SwitchKindConfig},
		{Id: "eco_express", Key: "startProgram.ecoExpress", Name: "Eco Express", Icon: "mdi:sprout", Kind: SwitchKindConfig},
		{Id: "add_dish", Key: "startProgram.addDish", Name: "Add Dish", Icon: "mdi:silverware-fork-knife", Kind: SwitchKindConfig},
		{Id: "buzzer", Key: "buzzerDisabled", Name: "Buzzer Disabled", Icon: "mdi:volume-off", Kind: SwitchKindSetting},
		{Id: "tab_status", Key: "startProgram.tabStatus", Name: "Tab Status", Icon: "mdi:silverware-clean", Kind: SwitchKindConfig},
	},
	honcloud.TYPE_AIR_CONDITIONER: {
		{Id: "ten_degree_heating", Key: "10degreeHeatingStatus", Name: "10° Heating", Icon: "mdi:heat-wave", Kind: SwitchKindSetting},
		{Id: "echo", Key: "echoStatus", Name: "Echo", Icon: "mdi:account-voice", Kind: SwitchKindSetting},
		{Id: "eco_mode", Key: "ecoMode", Name: "Eco Mode", Icon: "mdi:sprout", Kind: SwitchKindSetting},
		{Id: "health_mode", Key: "healthMode", Name: "Health Mode", Icon: "mdi:medication-outline", Kind: SwitchKindSetting},
		{Id: "silent_mode", Key: "muteStatus", Name: "Silent Mode", Icon: "mdi:volume-off", Kind: SwitchKindSetting},
		{Id: "rapid_mode", Key: "rapidMode", Name: "Rapid Mode", Icon: "mdi:run-fast", Kind: SwitchKindSetting},
		{Id: "screen_display", Key: "screenDisplayStatus", Name: "Screen Display", Icon: "mdi:monitor-small", Kind: SwitchKindSetting},
		{Id: "self_clean_56", Key: "selfCleaning56Status", Name: "Self Cleaning 56", Icon: "mdi:air-filter", Kind: SwitchKindSetting},
		{Id: "self_clean", Key: "selfCleaningStatus", Name: "Self Cleaning", Icon: "mdi:air-filter", Kind: SwitchKindSetting},
		{Id: "night_mode", Key: "silentSleepStatus", Name: "Night Mode", Icon: "mdi:bed", Kind: SwitchKindSetting},
	},
	honcloud.TYPE_FRIDGE: {
		{Id: "auto_set", Key: "intelligenceMode", Name: "Auto-Set Mode", Icon: "mdi:thermometer-auto", Kind: SwitchKindSetting},
		{Id: "super_freeze", Key: "quickModeZ2", Name: "Super Freeze", Icon: "mdi:snowflake-variant", Kind: SwitchKindSetting},
		{Id: "super_cool", Key: "quickModeZ1", Name: "Super Cool", Icon: "mdi:snowflake", Kind: SwitchKindSetting},
	},
	honcloud.TYPE_WINE_CELLAR: {
		{Id: "holiday_mode", Key: "sabbathStatus", Name: "Sabbath Mode", Icon: "mdi:palm-tree", Kind: SwitchKindSetting},
	},
	honcloud.TYPE_HOOD: {
		{Id: "active", Key: "onOffStatus", Name: "Hood", Icon: "mdi:hvac",
			Kind: SwitchKindControl, OnCommand: honcloud.COMMAND_START_PROGRAM, OffCommand: honcloud.COMMAND_STOP_PROGRAM},
	},
	honcloud.TYPE_AIR_PURIFIER: {
		{Id: "touch_tone", Key: "touchToneStatus", Name: "Touch Tone", Icon: "mdi:account-voice", Kind: SwitchKindSetting},
	},
	honcloud.TYPE_FREEZER: {
		{Id: "super_freeze", Key: "quickModeZ2", Name: "Super Freeze", Icon: "mdi:snowflake-variant", Kind: SwitchKindSetting},
		{Id: "super_cool", Key: "quickModeZ1", Name: "Super Cool", Icon: "mdi:snowflake", Kind: SwitchKindSetting},
	},
}

func init() {
	// washer-dryers expose the union of their own, washer and dryer options
	Switches[honcloud.TYPE_WASHER_DRYER] = UniqueSwitches(
		Switches[honcloud.TYPE_WASHER_DRYER], Switches[honcloud.TYPE_WASHING_MACHINE])
	Switches[honcloud.TYPE_WASHER_DRYER] = UniqueSwitches(
		Switches[honcloud.TYPE_WASHER_DRYER], Switches[honcloud.TYPE_TUMBLE_DRYER])
}

// UniqueSwitches appends the extra descriptions whose key the base set does
// not already declare.
func UniqueSwitches(base, extra []SwitchDescription) []SwitchDescription {
	seen := make(map[string]bool, len(base))
	for _, desc := range base {
		seen[desc.Key] = true
	}
	out := base
	for _, desc := range extra {
		if !seen[desc.Key] {
			seen[desc.Key] = true
			out = append(out, desc)
		}
	}
	return out
}

// SettingKey is the parameter key a switch description reads and writes.
func (d SwitchDescription) SettingKey() string {
	if d.Kind == SwitchKindSetting {
		return honcloud.COMMAND_SETTINGS + "." + d.Key
	}
	return d.Key
}

// EligibleSwitches filters an appliance type's table down to the switches
// this concrete appliance supports.
func EligibleSwitches(appliance *honcloud.Appliance) []SwitchDescription {
	var out []SwitchDescription
	for _, desc := range Switches[appliance.ApplianceType] {
		switch desc.Kind {
		case SwitchKindControl:
			if appliance.Get(desc.Key) == nil &&
				!appliance.HasCommand(desc.OnCommand) && !appliance.HasCommand(desc.OffCommand) {
				continue
			}
		default:
			if _, ok := appliance.Setting(desc.SettingKey()); !ok {
				continue
			}
		}
		out = append(out, desc)
	}
	return out
}
