package calendar

import "time"

var nseHolidays = []Holiday{
	// 2018
	{Date(2018, time.January, 26), "Republic Day"},
	{Date(2018, time.March, 2), "Maha Shivaratri"},
	{Date(2018, time.March, 30), "Good Friday"},
	{Date(2018, time.April, 2), "Ram Navami"},
	{Date(2018, time.May, 1), "Maharashtra Day"},
	{Date(2018, time.August, 15), "Independence Day"},
	{Date(2018, time.August, 22), "Bakri Id"},
	{Date(2018, time.September, 13), "Ganesh Chaturthi"},
	{Date(2018, time.October, 2), "Gandhi Jayanti"},
	{Date(2018, time.October, 18), "Dussehra"},
	{Date(2018, time.November, 7), "Diwali"},
	{Date(2018, time.November, 8), "Diwali Balipratipada"},
	{Date(2018, time.November, 23), "Guru Nanak Jayanti"},
	{Date(2018, time.December, 25), "Christmas"},
	// 2019
	{Date(2019, time.January, 26), "Republic Day (Saturday)"},
	{Date(2019, time.March, 4), "Maha Shivaratri"},
	{Date(2019, time.March, 21), "Holi"},
	{Date(2019, time.April, 17), "Ram Navami"},
	{Date(2019, time.April, 19), "Good Friday"},
	{Date(2019, time.May, 1), "Maharashtra Day"},
	{Date(2019, time.June, 5), "Id-ul-Fitr (Ramzan Id)"},
	{Date(2019, time.August, 12), "Bakri Id"},
	{Date(2019, time.August, 15), "Independence Day"},
	{Date(2019, time.September, 2), "Ganesh Chaturthi"},
	{Date(2019, time.September, 10), "Moharram"},
	{Date(2019, time.October, 2), "Gandhi Jayanti"},
	{Date(2019, time.October, 8), "Dussehra"},
	{Date(2019, time.October, 28), "Diwali Laxmi Pujan"},
	{Date(2019, time.November, 12), "Guru Nanak Jayanti"},
	{Date(2019, time.December, 25), "Christmas"},
	// 2020
	{Date(2020, time.January, 26), "Republic Day (Sunday)"},
	{Date(2020, time.February, 21), "Maha Shivaratri"},
	{Date(2020, time.March, 10), "Holi"},
	{Date(2020, time.April, 2), "Ram Navami"},
	{Date(2020, time.April, 6), "Mahavir Jayanti"},
	{Date(2020, time.April, 10), "Good Friday"},
	{Date(2020, time.May, 1), "Maharashtra Day"},
	{Date(2020, time.May, 25), "Id-ul-Fitr (Ramzan Id)"},
	{Date(2020, time.August, 1), "Bakri Id"},
	{Date(2020, time.August, 15), "Independence Day (Saturday)"},
	{Date(2020, time.October, 2), "Gandhi Jayanti"},
	{Date(2020, time.October, 25), "Dussehra (Sunday)"},
	{Date(2020, time.November, 14), "Diwali Balipratipada (Saturday)"},
	{Date(2020, time.November, 16), "Diwali Laxmi Pujan"},
	{Date(2020, time.November, 30), "Guru Nanak Jayanti"},
	{Date(2020, time.December, 25), "Christmas"},
	// 2021
	{Date(2021, time.January, 26), "Republic Day"},
	{Date(2021, time.March, 11), "Maha Shivaratri"},
	{Date(2021, time.March, 29), "Holi"},
	{Date(2021, time.April, 2), "Good Friday"},
	{Date(2021, time.April, 21), "Ram Navami"},
	{Date(2021, time.May, 13), "Id-ul-Fitr (Ramzan Id)"},
	{Date(2021, time.July, 21), "Bakri Id"},
	{Date(2021, time.August, 19), "Moharram"},
	{Date(2021, time.September, 10), "Ganesh Chaturthi"},
	{Date(2021, time.October, 15), "Dussehra"},
	{Date(2021, time.November, 4), "Diwali Laxmi Pujan"},
	{Date(2021, time.November, 5), "Diwali Balipratipada"},
	{Date(2021, time.November, 19), "Guru Nanak Jayanti"},
	// 2022
	{Date(2022, time.January, 26), "Republic Day"},
	{Date(2022, time.March, 1), "Maha Shivaratri"},
	{Date(2022, time.March, 18), "Holi"},
	{Date(2022, time.April, 14), "Dr. Baba Saheb Ambedkar Jayanti"},
	{Date(2022, time.April, 15), "Good Friday"},
	{Date(2022, time.May, 3), "Id-ul-Fitr (Ramzan Id)"},
	{Date(2022, time.July, 10), "Bakri Id"},
	{Date(2022, time.August, 9), "Moharram"},
	{Date(2022, time.August, 15), "Independence Day"},
	{Date(2022, time.August, 31), "Ganesh Chaturthi"},
	{Date(2022, time.October, 5), "Dussehra"},
	{Date(2022, time.October, 24), "Diwali Laxmi Pujan"},
	{Date(2022, time.October, 26), "Diwali Balipratipada"},
	{Date(2022, time.November, 8), "Guru Nanak Jayanti"},
	// 2023
	{Date(2023, time.January, 26), "Republic Day"},
	{Date(2023, time.March, 7), "Holi"},
	{Date(2023, time.March, 30), "Ram Navami"},
	{Date(2023, time.April, 4), "Mahavir Jayanti"},
	{Date(2023, time.April, 7), "Good Friday"},
	{Date(2023, time.April, 14), "Dr. Baba Saheb Ambedkar Jayanti"},
	{Date(2023, time.April, 22), "Id-ul-Fitr (Ramzan Id)"},
	{Date(2023, time.May, 1), "Maharashtra Day"},
	{Date(2023, time.June, 29), "Bakri Id"},
	{Date(2023, time.August, 15), "Independence Day"},
	{Date(2023, time.September, 19), "Ganesh Chaturthi"},
	{Date(2023, time.October, 2), "Gandhi Jayanti"},
	{Date(2023, time.October, 24), "Dussehra"},
	{Date(2023, time.November, 12), "Diwali Balipratipada"},
	{Date(2023, time.November, 13), "Diwali Laxmi Pujan"},
	{Date(2023, time.November, 27), "Guru Nanak Jayanti"},
	{Date(2023, time.December, 25), "Christmas"},
	// 2024
	{Date(2024, time.January, 26), "Republic Day"},
	{Date(2024, time.March, 8), "Maha Shivaratri"},
	{Date(2024, time.March, 25), "Holi"},
	{Date(2024, time.March, 29), "Good Friday"},
	{Date(2024, time.April, 11), "Id-ul-Fitr (Ramzan Id)"},
	{Date(2024, time.April, 17), "Ram Navami"},
	{Date(2024, time.May, 1), "Maharashtra Day"},
	{Date(2024, time.June, 17), "Bakri Id"},
	{Date(2024, time.July, 17), "Moharram"},
	{Date(2024, time.August, 15), "Independence Day"},
	{Date(2024, time.October, 2), "Gandhi Jayanti"},
	{Date(2024, time.November, 1), "Diwali Laxmi Pujan"},
	{Date(2024, time.November, 15), "Guru Nanak Jayanti"},
	{Date(2024, time.December, 25), "Christmas"},
}

// NSEHolidays returns the NSE trading holidays from 2018 through 2024.
func NSEHolidays() HolidaySet {
	return NewHolidaySet(nseHolidays...)
}
