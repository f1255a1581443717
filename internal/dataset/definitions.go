package dataset

// The sequence lists and thresholds are fixed here rather than read from the
// run configuration so that runs made with different configs (e.g. 4seasons
// and 4seasonsCR) are always scored with identical parameters.

var eurocDefinition = Definition{
	Name:   "euroc",
	Folder: "euroc",
	Prefix: "mav_",
	Sequences: []SequenceSpec{
		{Name: "MH_01_easy", StartFrame: 950, EndFrame: 3600},
		{Name: "MH_02_easy", StartFrame: 800, EndFrame: 3000},
		{Name: "MH_03_medium", StartFrame: 410, EndFrame: 2600},
		{Name: "MH_04_difficult", StartFrame: 445, EndFrame: 1925},
		{Name: "MH_05_difficult", StartFrame: 460, EndFrame: 2200},
		{Name: "V1_01_easy", StartFrame: 22, EndFrame: 2800},
		{Name: "V1_02_medium", StartFrame: 115, EndFrame: 1600},
		{Name: "V1_03_difficult", StartFrame: 250, EndFrame: 2020},
		{Name: "V2_01_easy", StartFrame: 26, EndFrame: 2130},
		{Name: "V2_02_medium", StartFrame: 100, EndFrame: 2230},
		{Name: "V2_03_difficult", StartFrame: 115, EndFrame: 1880},
	},
	CompletionThreshold: 0.8, // as in the DSO evaluation tools
	AllowUnassociated:   false,
}

// TUM-VI and 4Seasons use a stricter threshold so that both the start and the
// end of each sequence are covered.

var tumviDefinition = Definition{
	Name:   "tumvi",
	Folder: "tumvi",
	Prefix: "tumvi_",
	Sequences: []SequenceSpec{
		{Name: "dataset-corridor1_512_16", StartFrame: 2, EndFrame: LastFrame, Length: 305},
		{Name: "dataset-corridor2_512_16", StartFrame: 2, EndFrame: LastFrame, Length: 322},
		{Name: "dataset-corridor3_512_16", StartFrame: 2, EndFrame: LastFrame, Length: 300},
		{Name: "dataset-corridor4_512_16", StartFrame: 2, EndFrame: LastFrame, Length: 114},
		{Name: "dataset-corridor5_512_16", StartFrame: 2, EndFrame: LastFrame, Length: 270},
		{Name: "dataset-magistrale1_512_16", StartFrame: 2, EndFrame: LastFrame, Length: 918},
		{Name: "dataset-magistrale2_512_16", StartFrame: 2, EndFrame: LastFrame, Length: 561},
		{Name: "dataset-magistrale3_512_16", StartFrame: 2, EndFrame: LastFrame, Length: 566},
		{Name: "dataset-magistrale4_512_16", StartFrame: 2, EndFrame: LastFrame, Length: 688},
		{Name: "dataset-magistrale5_512_16", StartFrame: 2, EndFrame: LastFrame, Length: 458},
		{Name: "dataset-magistrale6_512_16", StartFrame: 2, EndFrame: LastFrame, Length: 771},
		{Name: "dataset-outdoors1_512_16", StartFrame: 2, EndFrame: LastFrame, Length: 2656},
		{Name: "dataset-outdoors2_512_16", StartFrame: 2, EndFrame: LastFrame, Length: 1601},
		{Name: "dataset-outdoors3_512_16", StartFrame: 2, EndFrame: LastFrame, Length: 1531},
		{Name: "dataset-outdoors4_512_16", StartFrame: 2, EndFrame: LastFrame, Length: 928},
		{Name: "dataset-outdoors5_512_16", StartFrame: 2, EndFrame: LastFrame, Length: 1168},
		{Name: "dataset-outdoors6_512_16", StartFrame: 2, EndFrame: LastFrame, Length: 2045},
		{Name: "dataset-outdoors7_512_16", StartFrame: 2, EndFrame: LastFrame, Length: 1748},
		{Name: "dataset-outdoors8_512_16", StartFrame: 2, EndFrame: LastFrame, Length: 986},
		{Name: "dataset-room1_512_16", StartFrame: 2, EndFrame: LastFrame, Length: 146},
		{Name: "dataset-room2_512_16", StartFrame: 2, EndFrame: LastFrame, Length: 142},
		{Name: "dataset-room3_512_16", StartFrame: 2, EndFrame: LastFrame, Length: 135},
		{Name: "dataset-room4_512_16", StartFrame: 2, EndFrame: LastFrame, Length: 68},
		{Name: "dataset-room5_512_16", StartFrame: 2, EndFrame: LastFrame, Length: 131},
		{Name: "dataset-room6_512_16", StartFrame: 2, EndFrame: LastFrame, Length: 67},
		{Name: "dataset-slides1_512_16", StartFrame: 2, EndFrame: LastFrame, Length: 289},
		{Name: "dataset-slides2_512_16", StartFrame: 2, EndFrame: LastFrame, Length: 299},
		{Name: "dataset-slides3_512_16", StartFrame: 2, EndFrame: LastFrame, Length: 383},
	},
	CompletionThreshold: 0.9,
	AllowUnassociated:   true,
}

var fourSeasonsDefinition = Definition{
	Name:   "four_seasons",
	Folder: "4seasons",
	Prefix: "4seasons_",
	Sequences: []SequenceSpec{
		{Name: "office_2021-01-07_12-04-03", StartFrame: 2, EndFrame: LastFrame, Length: 3790.960147973857},
		{Name: "office_2021-02-25_13-51-57", StartFrame: 2, EndFrame: LastFrame, Length: 3772.201462140006},
		{Name: "office_2020-03-24_17-36-22", StartFrame: 2, EndFrame: LastFrame, Length: 3775.4838890943192},
		{Name: "office_2020-03-24_17-45-31", StartFrame: 2, EndFrame: LastFrame, Length: 3776.5684518918497},
		{Name: "office_2020-04-07_10-20-32", StartFrame: 2, EndFrame: LastFrame, Length: 3790.7053757221142},
		{Name: "office_2020-06-12_10-10-57", StartFrame: 2, EndFrame: LastFrame, Length: 3776.8626523979783},
		{Name: "neighbor_2020-10-07_14-47-51", StartFrame: 2, EndFrame: LastFrame, Length: 2120.4493722818506},
		{Name: "neighbor_2020-10-07_14-53-52", StartFrame: 2, EndFrame: LastFrame, Length: 2124.5717222968324},
		{Name: "neighbor_2020-12-22_11-54-24", StartFrame: 2, EndFrame: LastFrame, Length: 2153.5269533455735},
		{Name: "neighbor_2021-02-25_13-25-15", StartFrame: 2, EndFrame: LastFrame, Length: 1885.7081876201207},
		{Name: "neighbor_2020-03-26_13-32-55", StartFrame: 2, EndFrame: LastFrame, Length: 2106.0377819934765},
		{Name: "neighbor_2021-05-10_18-02-12", StartFrame: 2, EndFrame: LastFrame, Length: 2160.656632453823},
		{Name: "neighbor_2021-05-10_18-32-32", StartFrame: 2, EndFrame: LastFrame, Length: 2166.919763495766},
		{Name: "business_2021-01-07_13-12-23", StartFrame: 2, EndFrame: LastFrame, Length: 3240.980487664213},
		{Name: "business_2021-02-25_14-16-43", StartFrame: 2, EndFrame: LastFrame, Length: 3251.9095169019683},
		{Name: "business_2020-10-08_09-30-57", StartFrame: 2, EndFrame: LastFrame, Length: 3011.6408305623318},
		{Name: "country_2020-10-08_09-57-28", StartFrame: 2, EndFrame: LastFrame, Length: 6555.597982195476},
		{Name: "country_2021-01-07_13-30-07", StartFrame: 2, EndFrame: LastFrame, Length: 6537.982081484175},
		{Name: "country_2020-04-07_11-33-45", StartFrame: 2, EndFrame: LastFrame, Length: 6580.585081043755},
		{Name: "country_2020-06-12_11-26-43", StartFrame: 2, EndFrame: LastFrame, Length: 6573.179452595141},
		{Name: "city_2020-12-22_11-33-15", StartFrame: 2, EndFrame: LastFrame, Length: 10780.574894006673},
		{Name: "city_2021-01-07_14-36-17", StartFrame: 2, EndFrame: LastFrame, Length: 10527.071542250924},
		{Name: "city_2021-02-25_11-09-49", StartFrame: 2, EndFrame: LastFrame, Length: 10640.53519930362},
		{Name: "oldtown_2020-10-08_11-53-41", StartFrame: 2, EndFrame: LastFrame, Length: 5034.444436444601},
		{Name: "oldtown_2021-01-07_10-49-45", StartFrame: 2, EndFrame: LastFrame, Length: 5060.695199977825},
		{Name: "oldtown_2021-02-25_12-34-08", StartFrame: 2, EndFrame: LastFrame, Length: 5110.7036112953065},
		{Name: "oldtown_2021-05-10_21-32-00", StartFrame: 2, EndFrame: LastFrame, Length: 5134.989596529747},
		{Name: "parking_2020-12-22_12-04-35", StartFrame: 2, EndFrame: LastFrame, Length: 1000.7504517487432},
		{Name: "parking_2021-02-25_13-39-06", StartFrame: 2, EndFrame: LastFrame, Length: 846.1020208454354},
		{Name: "parking_2021-05-10_19-15-19", StartFrame: 2, EndFrame: LastFrame, Length: 757.6168617773346},
	},
	CompletionThreshold: 0.9,
	AllowUnassociated:   true,
}
