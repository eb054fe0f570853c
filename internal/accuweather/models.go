package accuweather

type location struct {
	Key           string `json:"Key"`
	LocalizedName string `json:"LocalizedName"`
}

type value struct {
	Value float64 `json:"Value"`
}

type dailyResponse struct {
	DailyForecasts []dailyForecast `json:"DailyForecasts"`
}

type dailyForecast struct {
	Date                     string `json:"Date"`
	RealFeelTemperatureShade struct {
		Minimum value `json:"Minimum"`
	} `json:"RealFeelTemperatureShade"`
	Day struct {
		RelativeHumidity struct {
			Average float64 `json:"Average"`
		} `json:"RelativeHumidity"`
		Wind struct {
			Speed value `json:"Speed"`
		} `json:"Wind"`
		PrecipitationProbability float64 `json:"PrecipitationProbability"`
	} `json:"Day"`
}
